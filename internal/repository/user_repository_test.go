package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumnNames = []string{
	"id", "email", "nickname", "password_hash", "google_id", "picture_url",
	"verification_token", "reset_token", "reset_token_expires_at",
	"is_verified", "is_email_verified", "premium_status", "premium_expires_at",
	"created_at", "updated_at", "last_login_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func userRow(id, email string, googleID any, lastLogin any) []driver.Value {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{
		id, email, "Nick", "$2a$04$hash", googleID, nil,
		nil, nil, nil,
		true, true, "FREE", nil,
		now, now, lastLogin,
	}
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	hash := "$2a$04$hash"
	token := "verify-token"
	user := &domain.User{Email: "a@b.com", Nickname: "Nick", PasswordHash: &hash, VerificationToken: &token}

	mock.ExpectExec(`^INSERT INTO users \(id, email, nickname`).
		WithArgs(sqlmock.AnyArg(), "a@b.com", "Nick", hash, nil, nil, token, nil, nil,
			false, false, "FREE", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.PremiumFree, user.PremiumStatus)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_CreateDuplicateGoogleID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_google_id_key"})

	err := repo.Create(context.Background(), &domain.User{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicateExternalID)
}

func TestUserRepository_CreateDBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^INSERT INTO users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &domain.User{Email: "a@b.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user: db down")
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	lastLogin := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`^SELECT id, email, .* FROM users WHERE id = \$1$`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(userRow("u1", "a@b.com", "g-1", lastLogin)...))

	user, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	assert.Equal(t, "$2a$04$hash", *user.PasswordHash)
	require.NotNil(t, user.GoogleID)
	assert.Equal(t, "g-1", *user.GoogleID)
	assert.Nil(t, user.VerificationToken)
	assert.Equal(t, domain.PremiumFree, user.PremiumStatus)
	require.NotNil(t, user.LastLoginAt)
	assert.True(t, lastLogin.Equal(*user.LastLoginAt))
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(userRow("u1", "a@b.com", nil, nil)...))

	user, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, user.GoogleID)
	assert.Nil(t, user.LastLoginAt)
}

func TestUserRepository_GetByEmailDBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByGoogleIDOrEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`WHERE google_id = \$1 OR email = \$2 ORDER BY \(google_id IS NOT DISTINCT FROM \$1\) DESC LIMIT 1`).
		WithArgs("g-1", "a@b.com").
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(userRow("u1", "a@b.com", nil, nil)...))

	user, err := repo.GetByGoogleIDOrEmail(context.Background(), "g-1", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestUserRepository_GetByGoogleIDOrEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`WHERE google_id = \$1 OR email = \$2`).
		WithArgs("g-1", "a@b.com").
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	_, err := repo.GetByGoogleIDOrEmail(context.Background(), "g-1", "a@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByVerificationToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE verification_token = \$1`).
		WithArgs("tok").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByVerificationToken(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByResetToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE reset_token = \$1`).
		WithArgs("reset").
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(userRow("u1", "a@b.com", nil, nil)...))

	user, err := repo.GetByResetToken(context.Background(), "reset")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestUserRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	user := &domain.User{ID: "u1", Email: "new@b.com", Nickname: "Nick", IsVerified: true, PremiumStatus: domain.PremiumFree}

	mock.ExpectExec(`^UPDATE users SET email = \$2, nickname = \$3`).
		WithArgs("u1", "new@b.com", "Nick", nil, nil, nil, nil, nil, nil,
			true, false, "FREE", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), user))
	assert.False(t, user.UpdatedAt.IsZero())
}

func TestUserRepository_UpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.User{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_UpdateEmailCollision(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^UPDATE users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Update(context.Background(), &domain.User{ID: "u1", Email: "taken@b.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_UpdateLastLogin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^UPDATE users SET last_login_at = \$1 WHERE id = \$2$`).
		WithArgs(sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), "u1"))
}

func TestUserRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u1"), ErrNotFound)
}
