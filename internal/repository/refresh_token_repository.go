package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"butcher-shop/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
)

// RefreshTokenRepository stores refresh tokens. Only a SHA-256 digest of the
// token is persisted; lookups hash the presented value.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db *sql.DB
}

// NewRefreshTokenRepository creates a new instance of RefreshTokenRepository
func NewRefreshTokenRepository(db *sql.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, token.ID, token.UserID, hashToken(token.Token), token.ExpiresAt, token.CreatedAt, token.Revoked)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// FindByToken returns an active token; a revoked one yields ErrRefreshTokenRevoked
func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	found := &domain.RefreshToken{Token: token}
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at, revoked
		FROM refresh_tokens
		WHERE token_hash = $1
	`, hashToken(token)).Scan(&found.ID, &found.UserID, &found.ExpiresAt, &found.CreatedAt, &found.Revoked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrRefreshTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	case found.Revoked:
		return nil, ErrRefreshTokenRevoked
	}
	return found, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1`,
		hashToken(token),
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return expectOneRow(result, ErrRefreshTokenNotFound)
}

// DeleteExpired prunes a user's expired or revoked tokens
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND (expires_at <= $2 OR revoked)`,
		userID, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}
