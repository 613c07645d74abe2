package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db DBTX
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db DBTX) TokenRepository {
	return &tokenRepository{db: db}
}

// Create creates a new session row for a refresh token
func (r *tokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
		token.UserAgent,
		token.IPAddress,
	)

	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return fmt.Errorf("token with hash already exists: %w", ErrDuplicateToken)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a refresh token by its hash
func (r *tokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, user_agent, ip_address
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	token := &domain.RefreshToken{}
	var userAgent, ipAddress sql.NullString

	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
		&userAgent,
		&ipAddress,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token with hash not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}

	if userAgent.Valid {
		token.UserAgent = &userAgent.String
	}
	if ipAddress.Valid {
		token.IPAddress = &ipAddress.String
	}

	return token, nil
}

// DeleteByTokenHash deletes every session row carrying the hash
func (r *tokenRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM refresh_tokens WHERE token_hash = $1`

	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("failed to delete token by hash: %w", err)
	}

	return nil
}

// DeleteByUserID deletes all sessions of a user
func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete tokens by user id: %w", err)
	}

	return nil
}
