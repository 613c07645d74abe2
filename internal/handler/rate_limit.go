package handler

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/service"
	"github.com/prperemyshlev/starterkit-auth/pkg/observability"
	"go.uber.org/zap"
)

// Limiter decides whether a request identified by key fits in its window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*service.RateLimitResult, error)
}

// RateLimit configures RateLimitMiddleware
type RateLimit struct {
	Limiter Limiter
	Limit   int
	Window  time.Duration
	Metrics *observability.AuthMetrics
	Logger  *zap.Logger
}

// RateLimitMiddleware limits requests per route and client key. When the limiter
// itself fails the request is let through and the failure is logged.
func RateLimitMiddleware(cfg RateLimit, route string, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := route + ":" + keyFunc(c)

		result, err := cfg.Limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			cfg.Logger.Warn("Rate limiter unavailable", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			retryAfter := strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds())))
			c.Header("Retry-After", retryAfter)
			c.Header("X-RateLimit-Retry-After", retryAfter)
			cfg.Metrics.RecordRateLimited(c.Request.Context(), route)
			respondError(c, cfg.Logger, apperrors.ErrRateLimited)
			return
		}

		c.Next()
	}
}

// IPBasedKey extracts rate limit key from client IP. Forwarded headers are honoured
// only for proxies gin is configured to trust.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}
