package service

import (
	"context"
	"time"

	"github.com/prperemyshlev/starterkit-auth/internal/domain"
)

// AuthService defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) error
	Login(ctx context.Context, email, password string, meta domain.SessionMeta) (*AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string, meta domain.SessionMeta) (*AuthResult, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AccessToken, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ValidateAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error)
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
}

// UserService defines methods for operations on the authenticated user's account
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID string) error
	ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error)
	RecordPurchase(ctx context.Context, userID string, in PurchaseInput) (*domain.Payment, error)
}

// SessionRevoker invalidates access tokens before their natural expiry
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// IdentityVerifier turns an external ID token into a verified identity
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*domain.GoogleIdentity, error)
}

// RegisterInput carries the registration form
type RegisterInput struct {
	Email    string
	Nickname string
	Password string
}

// ProfileUpdate carries the profile fields to change. Nil fields are left untouched.
type ProfileUpdate struct {
	Nickname *string
	Email    *string
}

// PurchaseInput describes a purchase confirmed by the payment provider
type PurchaseInput struct {
	Provider      string
	ProductID     string
	TransactionID string
	AmountCents   int64
	Currency      string
	Tier          domain.PremiumStatus
	ExpiresAt     *time.Time
}
