package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	first := &domain.User{Email: "a@b.com", GoogleID: strPtr("g-1")}
	require.NoError(t, repos.User.Create(ctx, first))

	err := repos.User.Create(ctx, &domain.User{Email: "a@b.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	err = repos.User.Create(ctx, &domain.User{Email: "c@d.com", GoogleID: strPtr("g-1")})
	assert.ErrorIs(t, err, repository.ErrDuplicateExternalID)

	second := &domain.User{Email: "c@d.com"}
	require.NoError(t, repos.User.Create(ctx, second))
	second.Email = "a@b.com"
	assert.ErrorIs(t, repos.User.Update(ctx, second), repository.ErrDuplicateEmail)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	user := &domain.User{Email: "a@b.com", VerificationToken: strPtr("tok")}
	require.NoError(t, repos.User.Create(ctx, user))

	got, err := repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	*got.VerificationToken = "mutated"
	got.Nickname = "mutated"

	again, err := repos.User.GetByVerificationToken(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, again.Nickname)
}

func TestUserRepository_GetByGoogleIDOrEmailPrefersGoogleID(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	byEmail := &domain.User{Email: "a@b.com"}
	byGoogle := &domain.User{Email: "other@b.com", GoogleID: strPtr("g-1")}
	require.NoError(t, repos.User.Create(ctx, byEmail))
	require.NoError(t, repos.User.Create(ctx, byGoogle))

	got, err := repos.User.GetByGoogleIDOrEmail(ctx, "g-1", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, byGoogle.ID, got.ID)

	got, err = repos.User.GetByGoogleIDOrEmail(ctx, "g-2", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, byEmail.ID, got.ID)

	_, err = repos.User.GetByGoogleIDOrEmail(ctx, "g-2", "nobody@b.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	user := &domain.User{Email: "a@b.com"}
	require.NoError(t, repos.User.Create(ctx, user))
	require.NoError(t, repos.Token.Create(ctx, &domain.RefreshToken{UserID: user.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repos.Payment.Create(ctx, &domain.Payment{UserID: user.ID, Provider: "revenuecat", TransactionID: "tx"}))

	require.NoError(t, repos.User.Delete(ctx, user.ID))

	assert.Equal(t, 0, store.SessionCount(user.ID))
	payments, err := repos.Payment.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestTokenRepository_ForeignKeyAndUniqueness(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	assert.Error(t, repos.Token.Create(ctx, &domain.RefreshToken{UserID: "ghost", TokenHash: "h"}))

	user := &domain.User{Email: "a@b.com"}
	require.NoError(t, repos.User.Create(ctx, user))
	require.NoError(t, repos.Token.Create(ctx, &domain.RefreshToken{UserID: user.ID, TokenHash: "h"}))
	assert.ErrorIs(t, repos.Token.Create(ctx, &domain.RefreshToken{UserID: user.ID, TokenHash: "h"}), repository.ErrDuplicateToken)

	require.NoError(t, repos.Token.DeleteByTokenHash(ctx, "h"))
	require.NoError(t, repos.Token.DeleteByTokenHash(ctx, "h"))
	_, err := repos.Token.GetByTokenHash(ctx, "h")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	user := &domain.User{Email: "a@b.com"}
	require.NoError(t, repos.User.Create(ctx, user))
	require.NoError(t, repos.Token.Create(ctx, &domain.RefreshToken{UserID: user.ID, TokenHash: "h1"}))

	boom := errors.New("boom")
	err := repos.Tx.WithinTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := tx.Token.DeleteByUserID(ctx, user.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1, store.SessionCount(user.ID))
	assert.Equal(t, 1, store.UserCount())
}

func TestTransactor_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	user := &domain.User{Email: "a@b.com"}
	require.NoError(t, repos.User.Create(ctx, user))

	err := repos.Tx.WithinTransaction(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		return tx.User.Delete(ctx, user.ID)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, store.UserCount())
}

func TestPaymentRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	user := &domain.User{Email: "a@b.com"}
	require.NoError(t, repos.User.Create(ctx, user))

	now := time.Now()
	require.NoError(t, repos.Payment.Create(ctx, &domain.Payment{UserID: user.ID, Provider: "p", TransactionID: "old", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, repos.Payment.Create(ctx, &domain.Payment{UserID: user.ID, Provider: "p", TransactionID: "new", CreatedAt: now}))
	assert.ErrorIs(t, repos.Payment.Create(ctx, &domain.Payment{UserID: user.ID, Provider: "p", TransactionID: "new"}), repository.ErrDuplicatePayment)

	payments, err := repos.Payment.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "new", payments[0].TransactionID)
}
