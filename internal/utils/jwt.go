package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry
	ErrTokenExpired = errors.New("token is expired")

	// ErrTokenInvalid is returned for malformed tokens or bad signatures
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrWrongTokenType is returned when the type claim does not match the expected type
	ErrWrongTokenType = errors.New("wrong token type")
)

// tokenClaims is the signed JWT payload
type tokenClaims struct {
	UserID         string           `json:"user_id"`
	Email          string           `json:"email"`
	Type           domain.TokenType `json:"type"`
	IssuedAtMicros int64            `json:"iat_us,omitempty"` // iat has second precision only
	jwt.RegisteredClaims
}

// JWTManager manages JWT token operations
type JWTManager struct {
	accessSecret       []byte
	refreshSecret      []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

// NewJWTManager creates a new JWT manager. Access and refresh tokens are signed with different secrets.
func NewJWTManager(accessSecret, refreshSecret string, accessTokenExpiry, refreshTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		accessSecret:       []byte(accessSecret),
		refreshSecret:      []byte(refreshSecret),
		accessTokenExpiry:  accessTokenExpiry,
		refreshTokenExpiry: refreshTokenExpiry,
		now:                time.Now,
	}
}

// IssueAccess generates a new access token
func (j *JWTManager) IssueAccess(userID, email string) (string, error) {
	return j.issue(userID, email, domain.TokenTypeAccess, j.accessSecret, j.accessTokenExpiry)
}

// IssueRefresh generates a new refresh token
func (j *JWTManager) IssueRefresh(userID, email string) (string, error) {
	return j.issue(userID, email, domain.TokenTypeRefresh, j.refreshSecret, j.refreshTokenExpiry)
}

// VerifyAccess validates an access token and returns its claims
func (j *JWTManager) VerifyAccess(token string) (*domain.TokenClaims, error) {
	return j.Verify(token, domain.TokenTypeAccess, j.accessSecret)
}

// VerifyRefresh validates a refresh token signature and type. It does not consult the session store.
func (j *JWTManager) VerifyRefresh(token string) (*domain.TokenClaims, error) {
	return j.Verify(token, domain.TokenTypeRefresh, j.refreshSecret)
}

// AccessTokenExpiry returns the access token lifetime in seconds
func (j *JWTManager) AccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}

// RefreshTokenExpiry returns the refresh token lifetime
func (j *JWTManager) RefreshTokenExpiry() time.Duration {
	return j.refreshTokenExpiry
}

func (j *JWTManager) issue(userID, email string, typ domain.TokenType, secret []byte, ttl time.Duration) (string, error) {
	now := j.now()
	claims := tokenClaims{
		UserID:         userID,
		Email:          email,
		Type:           typ,
		IssuedAtMicros: now.UnixMicro(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	return tokenString, nil
}

// Verify parses tokenString with secret and checks that its type is expectedType.
// Expired and invalid tokens are reported with distinct errors.
func (j *JWTManager) Verify(tokenString string, expectedType domain.TokenType, secret []byte) (*domain.TokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Type != expectedType {
		return nil, fmt.Errorf("%w: expected %s, got %q", ErrWrongTokenType, expectedType, claims.Type)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrTokenInvalid)
	}

	result := &domain.TokenClaims{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Type:    claims.Type,
		Expires: claims.ExpiresAt.Time,
	}
	switch {
	case claims.IssuedAtMicros > 0:
		result.IssuedAt = time.UnixMicro(claims.IssuedAtMicros)
	case claims.IssuedAt != nil:
		result.IssuedAt = claims.IssuedAt.Time
	}

	return result, nil
}
