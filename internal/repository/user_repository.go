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

const userColumns = `id, email, nickname, password_hash, google_id, picture_url,
		verification_token, reset_token, reset_token_expires_at,
		is_verified, is_email_verified, premium_status, premium_expires_at,
		created_at, updated_at, last_login_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	// Generate UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.PremiumStatus == "" {
		user.PremiumStatus = domain.PremiumFree
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Nickname,
		user.PasswordHash,
		user.GoogleID,
		user.PictureURL,
		user.VerificationToken,
		user.ResetToken,
		user.ResetTokenExpiresAt,
		user.IsVerified,
		user.IsEmailVerified,
		user.PremiumStatus,
		user.PremiumExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
		user.LastLoginAt,
	)

	if err != nil {
		return mapUserWriteError(err, user, "create")
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email. The email must already be normalized.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByGoogleIDOrEmail retrieves the user linked to googleID, or failing that the user owning email
func (r *userRepository) GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE google_id = $1 OR email = $2
		ORDER BY (google_id IS NOT DISTINCT FROM $1) DESC
		LIMIT 1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, googleID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with google id or email %s not found: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by google id or email: %w", err)
	}

	return user, nil
}

// GetByVerificationToken retrieves a user by exact verification token match
func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with verification token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by verification token: %w", err)
	}

	return user, nil
}

// GetByResetToken retrieves a user by exact password reset token match
func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with reset token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return user, nil
}

// Update writes every mutable column of an existing user
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, nickname = $3, password_hash = $4, google_id = $5, picture_url = $6,
			verification_token = $7, reset_token = $8, reset_token_expires_at = $9,
			is_verified = $10, is_email_verified = $11, premium_status = $12, premium_expires_at = $13,
			updated_at = $14
		WHERE id = $1
	`

	user.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Nickname,
		user.PasswordHash,
		user.GoogleID,
		user.PictureURL,
		user.VerificationToken,
		user.ResetToken,
		user.ResetTokenExpiresAt,
		user.IsVerified,
		user.IsEmailVerified,
		user.PremiumStatus,
		user.PremiumExpiresAt,
		user.UpdatedAt,
	)

	if err != nil {
		return mapUserWriteError(err, user, "update")
	}

	return requireRow(result, "user with id "+user.ID)
}

// UpdateLastLogin updates the last login timestamp for a user
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET last_login_at = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return requireRow(result, "user with id "+userID)
}

// Delete deletes a user row. Sessions and payments cascade at the schema level.
func (r *userRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return requireRow(result, "user with id "+userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var lastLoginAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Nickname,
		&user.PasswordHash,
		&user.GoogleID,
		&user.PictureURL,
		&user.VerificationToken,
		&user.ResetToken,
		&user.ResetTokenExpiresAt,
		&user.IsVerified,
		&user.IsEmailVerified,
		&user.PremiumStatus,
		&user.PremiumExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	return user, nil
}

func mapUserWriteError(err error, user *domain.User, op string) error {
	if constraint, ok := uniqueViolation(err); ok {
		if constraint == constraintUsersGoogleID {
			return fmt.Errorf("google account already linked to another user: %w", ErrDuplicateExternalID)
		}
		return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
	}
	return fmt.Errorf("failed to %s user: %w", op, err)
}

func requireRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	}

	return nil
}
