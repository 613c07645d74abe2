package domain

import "time"

// Payment is a bookkeeping row recorded for a purchase made through the payment provider.
type Payment struct {
	ID            string        `db:"id"`
	UserID        string        `db:"user_id"`
	Provider      string        `db:"provider"` // revenuecat, app_store, play_store
	ProductID     string        `db:"product_id"`
	TransactionID string        `db:"transaction_id"`
	AmountCents   int64         `db:"amount_cents"`
	Currency      string        `db:"currency"`
	Tier          PremiumStatus `db:"tier"`
	CreatedAt     time.Time     `db:"created_at"`
}
