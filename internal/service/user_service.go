package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/repository"
	"github.com/prperemyshlev/starterkit-auth/internal/utils"
	"go.uber.org/zap"
)

// userService implements UserService interface
type userService struct {
	base
}

// NewUserService creates a new user service
func NewUserService(deps Dependencies) UserService {
	return newUserService(deps)
}

func newUserService(deps Dependencies) *userService {
	return &userService{base: newBase(deps)}
}

// GetProfile returns the user
func (s *userService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.loadUser(ctx, userID)
}

// UpdateProfile changes the nickname and/or email. A new email must be verified again.
func (s *userService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (user *domain.User, err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpUpdateProfile, err) }()

	user, err = s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Nickname != nil {
		nickname := utils.SanitizeNickname(*in.Nickname)
		if nickname == "" {
			return nil, apperrors.Validation(apperrors.CodeValidation, "Invalid profile data", DetailNicknameRequired)
		}
		user.Nickname = nickname
	}

	var verificationToken string
	if in.Email != nil {
		email := utils.NormalizeEmail(*in.Email)
		if !utils.ValidateEmail(email) {
			return nil, apperrors.Validation(apperrors.CodeValidation, "Invalid profile data", DetailInvalidEmail)
		}

		if email != user.Email {
			_, err = s.repos.User.GetByEmail(ctx, email)
			if err == nil {
				return nil, apperrors.ErrEmailTaken
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Internal(err)
			}

			verificationToken, err = utils.GenerateToken(utils.TokenBytes)
			if err != nil {
				return nil, apperrors.Internal(err)
			}

			user.Email = email
			user.IsEmailVerified = false
			user.VerificationToken = &verificationToken
		}
	}

	if err = s.repos.User.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to update profile: %w", err))
	}

	if verificationToken != "" {
		s.sendVerification(ctx, user, verificationToken)
	}

	return user, nil
}

// ChangePassword replaces the password after checking the current one and ends every session
func (s *userService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpChangePassword, err) }()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.HasPassword() {
		return apperrors.ErrPasswordNotSet
	}

	if !s.hasher.Verify(currentPassword, *user.PasswordHash) {
		return apperrors.ErrPasswordMismatch
	}

	if violations := utils.ValidatePassword(newPassword); len(violations) > 0 {
		return weakPassword(violations)
	}

	if s.hasher.Verify(newPassword, *user.PasswordHash) {
		return apperrors.ErrSamePassword
	}

	passwordHash, err := s.hashNewPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = &passwordHash

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
	s.logger.Info("Password changed", zap.String("user_id", user.ID))

	return nil
}

// DeleteAccount removes the user's sessions, payment history and the user row in one transaction
func (s *userService) DeleteAccount(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpDeleteAccount, err) }()

	err = s.withinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := tx.Token.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		if err := tx.Payment.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete payments: %w", err)
		}
		if err := tx.User.Delete(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.revokeSessions(ctx, userID)
	s.logger.Info("Account deleted", zap.String("user_id", userID))

	return nil
}

// ListPayments returns the user's payment history, newest first
func (s *userService) ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	payments, err := s.repos.Payment.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return payments, nil
}

// RecordPurchase stores a confirmed purchase and upgrades the user's premium status
func (s *userService) RecordPurchase(ctx context.Context, userID string, in PurchaseInput) (payment *domain.Payment, err error) {
	defer func() { s.metrics.RecordOperation(ctx, OpRecordPurchase, err) }()

	if details := validatePurchase(in, s.now); len(details) > 0 {
		return nil, apperrors.Validation(apperrors.CodeValidation, "Invalid purchase data", details...)
	}

	payment = &domain.Payment{
		UserID:        userID,
		Provider:      strings.TrimSpace(in.Provider),
		ProductID:     strings.TrimSpace(in.ProductID),
		TransactionID: strings.TrimSpace(in.TransactionID),
		AmountCents:   in.AmountCents,
		Currency:      strings.ToUpper(in.Currency),
		Tier:          in.Tier,
	}

	err = s.withinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		user, err := tx.User.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.ErrUserNotFound
			}
			return err
		}

		if err := tx.Payment.Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicatePayment) {
				return apperrors.ErrPaymentExists
			}
			return err
		}

		applyPurchase(user, in)
		return tx.User.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase recorded",
		zap.String("user_id", userID),
		zap.String("tier", string(in.Tier)),
	)

	return payment, nil
}
