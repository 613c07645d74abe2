// Package oauth verifies third-party identity tokens and converts their
// loosely typed claims into domain.GoogleIdentity.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"google.golang.org/api/idtoken"
)

var (
	// ErrNotConfigured is returned when no client ID is configured
	ErrNotConfigured = errors.New("google sign-in is not configured")

	// ErrInvalidToken is returned for any token that fails verification or claim checks
	ErrInvalidToken = errors.New("invalid google id token")
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// ValidateFunc verifies an ID token's signature, audience and expiry
type ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleVerifier verifies Google ID tokens for a single OAuth client
type GoogleVerifier struct {
	clientID string
	validate ValidateFunc
}

// NewGoogleVerifier creates a verifier backed by Google's published signing keys
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return NewGoogleVerifierWithValidator(clientID, idtoken.Validate)
}

// NewGoogleVerifierWithValidator creates a verifier with a custom validation function
func NewGoogleVerifierWithValidator(clientID string, validate ValidateFunc) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: validate}
}

// Verify validates the token against the configured audience and returns the identity it asserts.
// Only tokens for a verified email address are accepted.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*domain.GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	payload, err := v.validate(ctx, idToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return identityFromPayload(payload)
}

// identityFromPayload converts the raw claim map into a strict identity
func identityFromPayload(payload *idtoken.Payload) (*domain.GoogleIdentity, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidToken)
	}
	if !googleIssuers[payload.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, payload.Issuer)
	}
	if payload.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	email := strings.ToLower(strings.TrimSpace(stringClaim(payload.Claims, "email")))
	if email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalidToken)
	}
	if !boolClaim(payload.Claims, "email_verified") {
		return nil, fmt.Errorf("%w: email not verified by google", ErrInvalidToken)
	}

	return &domain.GoogleIdentity{
		Subject:    payload.Subject,
		Email:      email,
		Name:       stringClaim(payload.Claims, "name"),
		Picture:    stringClaim(payload.Claims, "picture"),
		GivenName:  stringClaim(payload.Claims, "given_name"),
		FamilyName: stringClaim(payload.Claims, "family_name"),
	}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if s, ok := claims[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// boolClaim accepts both JSON booleans and the "true" string some issuers emit
func boolClaim(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}
