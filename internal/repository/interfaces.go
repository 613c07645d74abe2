package repository

import (
	"context"

	"github.com/prperemyshlev/starterkit-auth/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByGoogleIDOrEmail prefers the row whose google_id matches.
	GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*domain.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
}

// TokenRepository defines methods for refresh token (session) operations
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// DeleteByTokenHash is idempotent: deleting an absent token is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// PaymentRepository defines methods for payment history operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
