// Package auth provides the credential capability: user registration,
// login and bearer-token verification. The core pipelines never touch
// credentials - they only consume the verified CallerIdentity this package
// produces.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/alexkarev/imagevault/internal/mwlogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL   = 2 * time.Hour
	bcryptCost = 10
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	PassHash  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type UserRepo interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
}

type Service struct {
	repo   UserRepo
	secret []byte
}

func NewService(repo UserRepo, secret string) *Service {
	return &Service{repo: repo, secret: []byte(secret)}
}

// Register creates a user with a bcrypt-hashed password and issues a token.
func (s *Service) Register(ctx context.Context, username, password string) (string, *User, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if username == "" || password == "" {
		return "", nil, model.ErrBadCredentials
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return "", nil, model.ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		logger.Error().Err(err).Msg("Failed to check username existence in DB")
		return "", nil, model.ErrCommon500
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{Username: username, PassHash: string(hash)}
	if err := s.repo.Create(ctx, user); err != nil {
		logger.Error().Err(err).Msg("Failed to create user in DB")
		return "", nil, model.ErrCommon500
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Login verifies the password and issues a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, model.ErrBadCredentials
		}
		logger.Error().Err(err).Msg("Failed to fetch user from DB")
		return "", nil, model.ErrCommon500
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		return "", nil, model.ErrBadCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *Service) issueToken(u *User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      u.ID.String(),
		"username": u.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ErrUserNotFound is the repo-level miss; the service maps it to the
// caller-facing credential errors.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidToken covers malformed, expired or mis-signed bearer tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// ParseIdentity verifies an HS256 bearer token and extracts the owner id.
func ParseIdentity(secret, tokenString string) (model.CallerIdentity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return model.CallerIdentity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.CallerIdentity{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	ownerID, err := uuid.Parse(sub)
	if err != nil {
		return model.CallerIdentity{}, ErrInvalidToken
	}

	return model.CallerIdentity{OwnerID: ownerID}, nil
}
