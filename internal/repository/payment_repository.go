package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
)

// paymentRepository implements PaymentRepository interface
type paymentRepository struct {
	db DBTX
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create records a payment
func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, provider, product_id, transaction_id, amount_cents, currency, tier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.Provider,
		payment.ProductID,
		payment.TransactionID,
		payment.AmountCents,
		payment.Currency,
		payment.Tier,
		payment.CreatedAt,
	)

	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return fmt.Errorf("payment %s/%s already recorded: %w", payment.Provider, payment.TransactionID, ErrDuplicatePayment)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// ListByUserID returns a user's payments, newest first
func (r *paymentRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, user_id, provider, product_id, transaction_id, amount_cents, currency, tier, created_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments by user id: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		payment := &domain.Payment{}

		err := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&payment.Provider,
			&payment.ProductID,
			&payment.TransactionID,
			&payment.AmountCents,
			&payment.Currency,
			&payment.Tier,
			&payment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// DeleteByUserID deletes a user's payment history
func (r *paymentRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM payments WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete payments by user id: %w", err)
	}

	return nil
}
