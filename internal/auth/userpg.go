package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wb-go/wbf/dbpg"
)

type PostgresUserRepo struct {
	DB *dbpg.DB
}

func NewPostgresUserRepo(dbconn *dbpg.DB) PostgresUserRepo {
	return PostgresUserRepo{DB: dbconn}
}

func (p PostgresUserRepo) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users (username, pass_hash)
	VALUES ($1, $2)
	RETURNING id, created_at`

	return p.DB.QueryRowContext(ctx, query, u.Username, u.PassHash).Scan(&u.ID, &u.CreatedAt)
}

func (p PostgresUserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT id, username, pass_hash, created_at
	FROM users
	WHERE username = $1`
	var user User

	err := p.DB.QueryRowContext(ctx, query, username).Scan(&user.ID,
		&user.Username,
		&user.PassHash,
		&user.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrUserNotFound
		default:
			return nil, err // 500
		}
	}
	return &user, nil
}
