package domain

import "time"

// TokenType discriminates access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims represents the verified payload of an access or refresh token
type TokenClaims struct {
	UserID   string
	Email    string
	Type     TokenType
	IssuedAt time.Time
	Expires  time.Time
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// SessionMeta describes the client a session was opened from.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}
