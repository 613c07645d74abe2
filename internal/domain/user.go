package domain

import "time"

// PremiumStatus is the subscription tier of a user
type PremiumStatus string

const (
	PremiumFree         PremiumStatus = "FREE"
	PremiumSubscription PremiumStatus = "PREMIUM_SUBSCRIPTION"
	PremiumLifetime     PremiumStatus = "PREMIUM_LIFETIME"
)

// Valid reports whether s is one of the known tiers
func (s PremiumStatus) Valid() bool {
	switch s {
	case PremiumFree, PremiumSubscription, PremiumLifetime:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID                  string        `db:"id"`
	Email               string        `db:"email"`
	Nickname            string        `db:"nickname"`
	PasswordHash        *string       `db:"password_hash"`
	GoogleID            *string       `db:"google_id"`
	PictureURL          *string       `db:"picture_url"`
	VerificationToken   *string       `db:"verification_token"`
	ResetToken          *string       `db:"reset_token"`
	ResetTokenExpiresAt *time.Time    `db:"reset_token_expires_at"`
	IsVerified          bool          `db:"is_verified"`
	IsEmailVerified     bool          `db:"is_email_verified"`
	PremiumStatus       PremiumStatus `db:"premium_status"`
	PremiumExpiresAt    *time.Time    `db:"premium_expires_at"`
	CreatedAt           time.Time     `db:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at"`
	LastLoginAt         *time.Time    `db:"last_login_at"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasActivePremium reports whether the user is entitled to premium features at now.
// A subscription counts only while its expiry lies in the future.
func (u *User) HasActivePremium(now time.Time) bool {
	switch u.PremiumStatus {
	case PremiumLifetime:
		return true
	case PremiumSubscription:
		return u.PremiumExpiresAt != nil && u.PremiumExpiresAt.After(now)
	}
	return false
}

// RefreshToken is a persisted session: one row per issued refresh token.
// Only the SHA-256 of the token is stored.
type RefreshToken struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UserAgent *string   `db:"user_agent"`
	IPAddress *string   `db:"ip_address"`
}

// IsExpired reports whether the session has reached its expiry at now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
