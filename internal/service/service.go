// Package service holds the business rules of registration, login, sessions and account management.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/email"
	"github.com/prperemyshlev/starterkit-auth/internal/repository"
	"github.com/prperemyshlev/starterkit-auth/internal/utils"
	"github.com/prperemyshlev/starterkit-auth/pkg/observability"
	"go.uber.org/zap"
)

// Operation names used in metrics
const (
	OpRegister           = "register"
	OpLogin              = "login"
	OpGoogleLogin        = "google_login"
	OpVerifyEmail        = "verify_email"
	OpResendVerification = "resend_verification"
	OpRefresh            = "refresh"
	OpLogout             = "logout"
	OpForgotPassword     = "forgot_password"
	OpResetPassword      = "reset_password"
	OpUpdateProfile      = "update_profile"
	OpChangePassword     = "change_password"
	OpDeleteAccount      = "delete_account"
	OpRecordPurchase     = "record_purchase"
)

// Dependencies are the collaborators shared by the services
type Dependencies struct {
	Repos               *repository.Repositories
	JWT                 *utils.JWTManager
	Hasher              *utils.PasswordHasher
	Revoker             SessionRevoker
	Verifier            IdentityVerifier
	Notifier            email.Notifier
	Logger              *zap.Logger
	Metrics             *observability.AuthMetrics
	PasswordResetExpiry time.Duration
}

type base struct {
	repos    *repository.Repositories
	jwt      *utils.JWTManager
	hasher   *utils.PasswordHasher
	revoker  SessionRevoker
	notifier email.Notifier
	logger   *zap.Logger
	metrics  *observability.AuthMetrics
	now      func() time.Time
}

func newBase(deps Dependencies) base {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		repos:    deps.Repos,
		jwt:      deps.JWT,
		hasher:   deps.Hasher,
		revoker:  deps.Revoker,
		notifier: deps.Notifier,
		logger:   logger,
		metrics:  deps.Metrics,
		now:      time.Now,
	}
}

func (b *base) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := b.repos.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// revokeSessions cuts off the user's outstanding access tokens. Session rows are already gone
// by the time it runs, so a failure here is logged rather than returned.
func (b *base) revokeSessions(ctx context.Context, userID string) {
	if err := b.revoker.RevokeUser(ctx, userID); err != nil {
		b.logger.Error("Failed to revoke access tokens",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func (b *base) sendVerification(ctx context.Context, user *domain.User, token string) {
	if err := b.notifier.SendVerification(ctx, user.Email, user.Nickname, token); err != nil {
		b.logger.Warn("Failed to send verification email",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}

// hashNewPassword enforces the password policy and hashes the result
func (b *base) hashNewPassword(password string) (string, error) {
	if violations := utils.ValidatePassword(password); len(violations) > 0 {
		return "", weakPassword(violations)
	}
	hash, err := b.hasher.Hash(password)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return hash, nil
}

func weakPassword(violations []string) error {
	return apperrors.Validation(apperrors.CodeWeakPassword, "Password does not meet the requirements", violations...)
}

// withinTx runs fn in a transaction, passing app errors through untouched
func (b *base) withinTx(ctx context.Context, fn func(ctx context.Context, tx *repository.Repositories) error) error {
	err := b.repos.Tx.WithinTransaction(ctx, fn)
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Internal(err)
}
