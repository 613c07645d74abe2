package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	payment := &domain.Payment{
		UserID:        "u1",
		Provider:      "revenuecat",
		ProductID:     "premium_monthly",
		TransactionID: "tx-1",
		AmountCents:   499,
		Currency:      "USD",
		Tier:          domain.PremiumSubscription,
	}

	mock.ExpectExec(`^INSERT INTO payments`).
		WithArgs(sqlmock.AnyArg(), "u1", "revenuecat", "premium_monthly", "tx-1", int64(499), "USD",
			"PREMIUM_SUBSCRIPTION", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), payment))
	assert.NotEmpty(t, payment.ID)
}

func TestPaymentRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec(`^INSERT INTO payments`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_provider_transaction_id_key"})

	err := repo.Create(context.Background(), &domain.Payment{UserID: "u1", TransactionID: "tx-1"})
	assert.ErrorIs(t, err, ErrDuplicatePayment)
}

func TestPaymentRepository_ListByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "provider", "product_id", "transaction_id", "amount_cents", "currency", "tier", "created_at"}).
		AddRow("p2", "u1", "revenuecat", "premium_lifetime", "tx-2", int64(2999), "USD", "PREMIUM_LIFETIME", now).
		AddRow("p1", "u1", "revenuecat", "premium_monthly", "tx-1", int64(499), "USD", "PREMIUM_SUBSCRIPTION", now.Add(-time.Hour))

	mock.ExpectQuery(`FROM payments WHERE user_id = \$1 ORDER BY created_at DESC$`).
		WithArgs("u1").
		WillReturnRows(rows)

	payments, err := repo.ListByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "p2", payments[0].ID)
	assert.Equal(t, domain.PremiumLifetime, payments[0].Tier)
	assert.Equal(t, int64(499), payments[1].AmountCents)
}

func TestPaymentRepository_ListByUserIDEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`FROM payments WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	payments, err := repo.ListByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, payments)
	assert.Empty(t, payments)
}

func TestPaymentRepository_DeleteByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec(`^DELETE FROM payments WHERE user_id = \$1$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByUserID(context.Background(), "u1"))
}
