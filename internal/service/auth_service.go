package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/repository"
	"github.com/prperemyshlev/starterkit-auth/internal/utils"
	"go.uber.org/zap"
)

// Registration validation messages
const (
	DetailInvalidEmail     = "email must be a valid email address"
	DetailNicknameRequired = "nickname is required"
)

// authService implements AuthService interface
type authService struct {
	base
	verifier            IdentityVerifier
	passwordResetExpiry time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(deps Dependencies) AuthService {
	return newAuthService(deps)
}

func newAuthService(deps Dependencies) *authService {
	resetExpiry := deps.PasswordResetExpiry
	if resetExpiry <= 0 {
		resetExpiry = time.Hour
	}
	return &authService{
		base:                newBase(deps),
		verifier:            deps.Verifier,
		passwordResetExpiry: resetExpiry,
	}
}

// Register creates an unverified account and emails a verification link
func (s *authService) Register(ctx context.Context, in RegisterInput) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpRegister, err) }()

	email := utils.NormalizeEmail(in.Email)
	nickname := utils.SanitizeNickname(in.Nickname)

	var details []string
	if !utils.ValidateEmail(email) {
		details = append(details, DetailInvalidEmail)
	}
	if nickname == "" {
		details = append(details, DetailNicknameRequired)
	}
	violations := utils.ValidatePassword(in.Password)
	if len(details) == 0 && len(violations) > 0 {
		return weakPassword(violations)
	}
	if len(details) > 0 {
		details = append(details, violations...)
		return apperrors.Validation(apperrors.CodeValidation, "Invalid registration data", details...)
	}

	// Check if user already exists
	_, err = s.repos.User.GetByEmail(ctx, email)
	if err == nil {
		return apperrors.ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return apperrors.Internal(fmt.Errorf("failed to check user existence: %w", err))
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	token, err := utils.GenerateToken(utils.TokenBytes)
	if err != nil {
		return apperrors.Internal(err)
	}

	user := &domain.User{
		Email:             email,
		Nickname:          nickname,
		PasswordHash:      &passwordHash,
		VerificationToken: &token,
		PremiumStatus:     domain.PremiumFree,
	}

	if err = s.repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return apperrors.ErrUserExists
		}
		return apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	s.sendVerification(ctx, user, token)

	return nil
}

// Login authenticates a user by email and password
func (s *authService) Login(ctx context.Context, email, password string, meta domain.SessionMeta) (result *AuthResult, err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpLogin, err) }()

	user, err := s.repos.User.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
		}
		// Spend a bcrypt comparison anyway so response time does not reveal the miss
		s.hasher.Verify(password, s.dummyPasswordHash())
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.HasPassword() {
		s.hasher.Verify(password, s.dummyPasswordHash())
		return nil, apperrors.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, *user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, apperrors.ErrEmailNotVerified
	}

	s.touchLastLogin(ctx, user.ID)

	result, err = s.openSession(ctx, user, meta)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return result, nil
}

// GoogleLogin signs in with a Google ID token, linking or creating the account as needed
func (s *authService) GoogleLogin(ctx context.Context, idToken string, meta domain.SessionMeta) (result *AuthResult, err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpGoogleLogin, err) }()

	if s.verifier == nil {
		return nil, apperrors.ErrInvalidExternalToken
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.Debug("Google token rejected", zap.Error(err))
		return nil, apperrors.ErrInvalidExternalToken
	}
	identity.Email = utils.NormalizeEmail(identity.Email)

	user, err := s.findOrCreateGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.touchLastLogin(ctx, user.ID)

	result, err = s.openSession(ctx, user, meta)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return result, nil
}

func (s *authService) findOrCreateGoogleUser(ctx context.Context, identity *domain.GoogleIdentity) (*domain.User, error) {
	user, err := s.repos.User.GetByGoogleIDOrEmail(ctx, identity.Subject, identity.Email)
	switch {
	case err == nil:
		return s.linkGoogleUser(ctx, user, identity)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Internal(fmt.Errorf("failed to look up google user: %w", err))
	}

	nickname := utils.SanitizeNickname(identity.DisplayName())
	if nickname == "" {
		nickname = "user"
	}

	user = &domain.User{
		Email:           identity.Email,
		Nickname:        nickname,
		GoogleID:        &identity.Subject,
		PictureURL:      optional(identity.Picture),
		IsVerified:      true,
		IsEmailVerified: true,
		PremiumStatus:   domain.PremiumFree,
	}

	err = s.repos.User.Create(ctx, user)
	if err == nil {
		s.logger.Info("User created from Google account", zap.String("user_id", user.ID))
		return user, nil
	}
	if !errors.Is(err, repository.ErrDuplicateEmail) && !errors.Is(err, repository.ErrDuplicateExternalID) {
		return nil, apperrors.Internal(fmt.Errorf("failed to create google user: %w", err))
	}

	// A concurrent login created the row first
	user, err = s.repos.User.GetByGoogleIDOrEmail(ctx, identity.Subject, identity.Email)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to look up google user: %w", err))
	}
	return s.linkGoogleUser(ctx, user, identity)
}

func (s *authService) linkGoogleUser(ctx context.Context, user *domain.User, identity *domain.GoogleIdentity) (*domain.User, error) {
	if user.GoogleID != nil {
		if *user.GoogleID != identity.Subject {
			// The email belongs to an account linked to a different Google subject
			s.logger.Warn("Google subject does not match linked account", zap.String("user_id", user.ID))
			return nil, apperrors.ErrInvalidExternalToken
		}
		return user, nil
	}

	// A password set on an account nobody verified may belong to someone
	// who registered the address before its owner signed in with Google.
	if !user.IsVerified {
		user.PasswordHash = nil
	}

	user.GoogleID = &identity.Subject
	if identity.Picture != "" {
		user.PictureURL = &identity.Picture
	}
	user.IsVerified = true
	user.IsEmailVerified = true
	user.VerificationToken = nil

	if err := s.repos.User.Update(ctx, user); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to link google account: %w", err))
	}

	s.logger.Info("Google account linked", zap.String("user_id", user.ID))
	return user, nil
}

// VerifyEmail consumes a verification token
func (s *authService) VerifyEmail(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpVerifyEmail, err) }()

	if token == "" {
		return apperrors.ErrInvalidToken
	}

	user, err := s.repos.User.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.Internal(err)
	}

	if user.IsVerified && user.IsEmailVerified {
		return apperrors.ErrAlreadyVerified
	}

	user.IsVerified = true
	user.IsEmailVerified = true
	user.VerificationToken = nil

	if err = s.repos.User.Update(ctx, user); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to verify email: %w", err))
	}

	return nil
}

// ResendVerification issues a fresh verification token. Unknown addresses succeed silently.
func (s *authService) ResendVerification(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpResendVerification, err) }()

	user, err := s.repos.User.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.Internal(err)
	}

	if user.IsVerified && user.IsEmailVerified {
		return apperrors.ErrAlreadyVerified
	}

	token, err := utils.GenerateToken(utils.TokenBytes)
	if err != nil {
		return apperrors.Internal(err)
	}
	user.VerificationToken = &token

	if err = s.repos.User.Update(ctx, user); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to store verification token: %w", err))
	}

	s.sendVerification(ctx, user, token)
	return nil
}

// RefreshToken exchanges a live refresh token for a new access token. The refresh token is not rotated.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (result *AccessToken, err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpRefresh, err) }()

	claims, err := s.jwt.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	tokenHash := utils.HashToken(refreshToken)

	session, err := s.repos.Token.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get token: %w", err))
	}

	if session.IsExpired(s.now()) {
		if err := s.repos.Token.DeleteByTokenHash(ctx, tokenHash); err != nil {
			s.logger.Warn("Failed to purge expired session", zap.String("user_id", session.UserID), zap.Error(err))
		}
		return nil, apperrors.ErrInvalidRefreshToken
	}

	if session.UserID != claims.UserID {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.repos.User.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}

	accessToken, err := s.jwt.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate access token: %w", err))
	}

	return &AccessToken{AccessToken: accessToken, ExpiresIn: s.jwt.AccessTokenExpiry()}, nil
}

// Logout deletes the session carrying the refresh token. Unknown tokens are not an error.
func (s *authService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpLogout, err) }()

	if refreshToken == "" {
		return nil
	}

	if err = s.repos.Token.DeleteByTokenHash(ctx, utils.HashToken(refreshToken)); err != nil {
		return apperrors.Internal(err)
	}

	return nil
}

// ForgotPassword emails a password reset link. It reports success whether or not the address is known.
func (s *authService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpForgotPassword, err) }()

	user, err := s.repos.User.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.Internal(err)
	}

	token, err := utils.GenerateToken(utils.TokenBytes)
	if err != nil {
		return apperrors.Internal(err)
	}

	tokenHash := utils.HashToken(token)
	expiresAt := s.now().Add(s.passwordResetExpiry).UTC()
	user.ResetToken = &tokenHash
	user.ResetTokenExpiresAt = &expiresAt

	if err = s.repos.User.Update(ctx, user); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to store reset token: %w", err))
	}

	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.Nickname, token); err != nil {
		s.logger.Warn("Failed to send password reset email",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return nil
}

// ResetPassword sets a new password using a reset token and ends every session of the user
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpResetPassword, err) }()

	if violations := utils.ValidatePassword(newPassword); len(violations) > 0 {
		return weakPassword(violations)
	}

	if token == "" {
		return apperrors.ErrInvalidToken
	}

	user, err := s.repos.User.GetByResetToken(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.Internal(err)
	}

	if user.ResetTokenExpiresAt == nil || !user.ResetTokenExpiresAt.After(s.now()) {
		user.ResetToken = nil
		user.ResetTokenExpiresAt = nil
		if err := s.repos.User.Update(ctx, user); err != nil {
			s.logger.Warn("Failed to clear expired reset token", zap.String("user_id", user.ID), zap.Error(err))
		}
		return apperrors.ErrInvalidToken
	}

	passwordHash, err := s.hashNewPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = &passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiresAt = nil

	err = s.withinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := tx.User.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := tx.Token.DeleteByUserID(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.revokeSessions(ctx, user.ID)
	s.logger.Info("Password reset", zap.String("user_id", user.ID))

	return nil
}

// ValidateAccessToken verifies an access token and rejects tokens issued before a revocation
func (s *authService) ValidateAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := s.jwt.VerifyAccess(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.UserID, claims.IssuedAt)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.ErrUnauthorized
	}

	return claims, nil
}

// GetProfile returns the user behind a validated access token
func (s *authService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.loadUser(ctx, userID)
}

func (s *authService) touchLastLogin(ctx context.Context, userID string) {
	if err := s.repos.User.UpdateLastLogin(ctx, userID); err != nil {
		s.logger.Warn("Failed to update last login", zap.String("user_id", userID), zap.Error(err))
	}
}

// dummyPasswordHash returns a hash at the configured cost, computed on first use
func (s *authService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-equalizer-password")
		if err != nil {
			s.logger.Error("Failed to prepare dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
