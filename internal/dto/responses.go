package dto

import (
	"time"

	"github.com/prperemyshlev/starterkit-auth/internal/domain"
)

// Envelope wraps every response body
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// MessageResponse carries a human-readable outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary is the user shape returned by login
type UserSummary struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Nickname      string `json:"nickname"`
	IsVerified    bool   `json:"isVerified"`
	PremiumStatus string `json:"premiumStatus"`
}

// UserResponse is the full profile of the authenticated user
type UserResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Nickname         string     `json:"nickname"`
	PictureURL       *string    `json:"pictureUrl,omitempty"`
	IsVerified       bool       `json:"isVerified"`
	IsEmailVerified  bool       `json:"isEmailVerified"`
	HasPassword      bool       `json:"hasPassword"`
	GoogleLinked     bool       `json:"googleLinked"`
	PremiumStatus    string     `json:"premiumStatus"`
	PremiumExpiresAt *time.Time `json:"premiumExpiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// Tokens is an access/refresh pair
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
}

// AuthResponse is returned by login and Google login
type AuthResponse struct {
	User   UserSummary `json:"user"`
	Tokens Tokens      `json:"tokens"`
}

// AccessTokenResponse is returned by a refresh
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// UserEnvelope wraps a profile
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// PaymentResponse is one row of payment history
type PaymentResponse struct {
	ID            string    `json:"id"`
	Provider      string    `json:"provider"`
	ProductID     string    `json:"productId"`
	TransactionID string    `json:"transactionId"`
	AmountCents   int64     `json:"amountCents"`
	Currency      string    `json:"currency"`
	Tier          string    `json:"tier"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PaymentsResponse lists payment history
type PaymentsResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

// PremiumResponse reports an active premium entitlement
type PremiumResponse struct {
	PremiumStatus    string     `json:"premiumStatus"`
	PremiumExpiresAt *time.Time `json:"premiumExpiresAt,omitempty"`
}

// NewUserSummary converts a user to its login summary
func NewUserSummary(u *domain.User) UserSummary {
	return UserSummary{
		ID:            u.ID,
		Email:         u.Email,
		Nickname:      u.Nickname,
		IsVerified:    u.IsVerified,
		PremiumStatus: string(u.PremiumStatus),
	}
}

// NewUserResponse converts a user to its profile representation
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Nickname:         u.Nickname,
		PictureURL:       u.PictureURL,
		IsVerified:       u.IsVerified,
		IsEmailVerified:  u.IsEmailVerified,
		HasPassword:      u.HasPassword(),
		GoogleLinked:     u.GoogleID != nil,
		PremiumStatus:    string(u.PremiumStatus),
		PremiumExpiresAt: u.PremiumExpiresAt,
		CreatedAt:        u.CreatedAt,
		LastLoginAt:      u.LastLoginAt,
	}
}

// NewPaymentResponse converts a payment row
func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		Provider:      p.Provider,
		ProductID:     p.ProductID,
		TransactionID: p.TransactionID,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Tier:          string(p.Tier),
		CreatedAt:     p.CreatedAt,
	}
}
