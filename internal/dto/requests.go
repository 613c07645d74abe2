package dto

import "time"

// RegisterRequest represents a registration request. Field rules are checked by the service
// so every violation can be reported at once.
type RegisterRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest carries a Google ID token obtained by the mobile app
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// TokenRequest carries a single-use email token
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// EmailRequest carries an email address
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// RefreshTokenRequest carries a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest carries the refresh token of the session to end
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// UpdateProfileRequest changes profile fields. Absent fields are left untouched.
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname"`
	Email    *string `json:"email"`
}

// ChangePasswordRequest changes the password of the authenticated user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// PaymentWebhookRequest is a purchase confirmed by the payment provider for one of our users
type PaymentWebhookRequest struct {
	UserID        string     `json:"userId" binding:"required"`
	Provider      string     `json:"provider" binding:"required"`
	ProductID     string     `json:"productId" binding:"required"`
	TransactionID string     `json:"transactionId" binding:"required"`
	AmountCents   int64      `json:"amountCents" binding:"gte=0"`
	Currency      string     `json:"currency" binding:"required,len=3"`
	Tier          string     `json:"tier" binding:"required,oneof=PREMIUM_SUBSCRIPTION PREMIUM_LIFETIME"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}
