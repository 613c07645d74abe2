package service

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/utils"
)

// AuthResult is returned by every successful login
type AuthResult struct {
	User   *domain.User
	Tokens domain.TokenPair
}

// AccessToken is returned by a refresh
type AccessToken struct {
	AccessToken string
	ExpiresIn   int // seconds
}

// openSession issues an access/refresh pair and persists the refresh token as a new session row
func (s *authService) openSession(ctx context.Context, user *domain.User, meta domain.SessionMeta) (*AuthResult, error) {
	accessToken, err := s.jwt.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(refreshToken),
		ExpiresAt: s.now().Add(s.jwt.RefreshTokenExpiry()),
		UserAgent: optional(meta.UserAgent),
		IPAddress: optional(meta.IPAddress),
	}

	if err := s.repos.Token.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &AuthResult{
		User: user,
		Tokens: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    s.jwt.AccessTokenExpiry(),
		},
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
