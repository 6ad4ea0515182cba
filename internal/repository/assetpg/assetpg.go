package assetpg

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

// Create inserts one asset row; id and timestamps come back from the DB so
// the store stays the single source of identifier generation.
func (p PostgresRepo) Create(ctx context.Context, a *model.Asset) error {
	query := `INSERT INTO assets (owner_id, storage_key, url, format, width, height)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at`

	return p.DB.QueryRowContext(ctx, query,
		a.OwnerID,
		a.StorageKey,
		a.URL,
		a.Format,
		a.Width,
		a.Height,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Asset, error) {
	query := `SELECT id, owner_id, storage_key, url, format, width, height, created_at, updated_at
	FROM assets
	WHERE id = $1`
	var asset model.Asset

	err := p.DB.QueryRowContext(ctx, query, id).Scan(&asset.ID,
		&asset.OwnerID,
		&asset.StorageKey,
		&asset.URL,
		&asset.Format,
		&asset.Width,
		&asset.Height,
		&asset.CreatedAt,
		&asset.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrAssetNotFound
		default:
			return nil, err // 500
		}
	}
	return &asset, nil
}

func (p PostgresRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]model.Asset, error) {
	query := `SELECT id, owner_id, storage_key, url, format, width, height, created_at, updated_at
	FROM assets
	WHERE owner_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	OFFSET $3`

	rows, err := p.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	assets := make([]model.Asset, 0, limit)
	for rows.Next() {
		var asset model.Asset
		if err := rows.Scan(&asset.ID,
			&asset.OwnerID,
			&asset.StorageKey,
			&asset.URL,
			&asset.Format,
			&asset.Width,
			&asset.Height,
			&asset.CreatedAt,
			&asset.UpdatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return assets, nil
}

func (p PostgresRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	query := `SELECT count(*) FROM assets WHERE owner_id = $1`

	var total int64
	if err := p.DB.QueryRowContext(ctx, query, ownerID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
