package service

import (
	"strings"
	"time"
	"unicode"

	"github.com/prperemyshlev/starterkit-auth/internal/domain"
)

func validatePurchase(in PurchaseInput, now func() time.Time) []string {
	var details []string

	if strings.TrimSpace(in.Provider) == "" {
		details = append(details, "provider is required")
	}
	if strings.TrimSpace(in.ProductID) == "" {
		details = append(details, "productId is required")
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		details = append(details, "transactionId is required")
	}
	if in.AmountCents < 0 {
		details = append(details, "amountCents must not be negative")
	}
	if !isCurrencyCode(in.Currency) {
		details = append(details, "currency must be a three-letter ISO 4217 code")
	}

	switch in.Tier {
	case domain.PremiumLifetime:
	case domain.PremiumSubscription:
		if in.ExpiresAt == nil || !in.ExpiresAt.After(now()) {
			details = append(details, "expiresAt must be in the future for a subscription")
		}
	default:
		details = append(details, "tier must be PREMIUM_SUBSCRIPTION or PREMIUM_LIFETIME")
	}

	return details
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// applyPurchase moves the user to the purchased tier. Lifetime is never downgraded
// and a subscription only ever extends the current expiry.
func applyPurchase(user *domain.User, in PurchaseInput) {
	switch in.Tier {
	case domain.PremiumLifetime:
		user.PremiumStatus = domain.PremiumLifetime
		user.PremiumExpiresAt = nil
	case domain.PremiumSubscription:
		if user.PremiumStatus == domain.PremiumLifetime {
			return
		}
		expiresAt := in.ExpiresAt.UTC()
		if user.PremiumStatus == domain.PremiumSubscription && user.PremiumExpiresAt != nil && user.PremiumExpiresAt.After(expiresAt) {
			expiresAt = *user.PremiumExpiresAt
		}
		user.PremiumStatus = domain.PremiumSubscription
		user.PremiumExpiresAt = &expiresAt
	}
}
