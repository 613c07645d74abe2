package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/domain"
	"github.com/prperemyshlev/starterkit-auth/internal/service"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware chain
const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
	ContextUser   = "user"
)

// UserLoader loads the authenticated user's current record
type UserLoader interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
}

// AuthMiddleware validates the bearer access token and adds user info to context
func AuthMiddleware(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, logger, apperrors.ErrNoToken)
			return
		}

		claims, err := authService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// LoadUser puts the authenticated user's record in context. It must run after AuthMiddleware.
func LoadUser(loader UserLoader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := loader.GetProfile(c.Request.Context(), c.GetString(ContextUserID))
		if err != nil {
			if apperrors.From(err).Kind == apperrors.KindNotFound {
				err = apperrors.ErrUnauthorized
			}
			respondError(c, logger, err)
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// IsVerified reports whether the account has completed email verification
func IsVerified(user *domain.User) bool {
	return user.IsVerified
}

// HasPremium reports whether the account is entitled to premium features at now
func HasPremium(user *domain.User, now time.Time) bool {
	return user.HasActivePremium(now)
}

// RequireVerified rejects accounts that have not verified their email
func RequireVerified(logger *zap.Logger) gin.HandlerFunc {
	return requireUser(logger, apperrors.ErrVerificationRequired, IsVerified)
}

// RequirePremium rejects accounts without an active premium entitlement
func RequirePremium(logger *zap.Logger) gin.HandlerFunc {
	return requireUser(logger, apperrors.ErrPremiumRequired, func(user *domain.User) bool {
		return HasPremium(user, time.Now())
	})
}

func requireUser(logger *zap.Logger, deny error, allowed func(*domain.User) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondError(c, logger, apperrors.ErrUnauthorized)
			return
		}

		if !allowed(user) {
			respondError(c, logger, deny)
			return
		}

		c.Next()
	}
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}
