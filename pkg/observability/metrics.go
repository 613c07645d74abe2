package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// AuthMetrics holds the counters recorded by the auth flows.
// A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	operations  metric.Int64Counter
	emails      metric.Int64Counter
	rateLimited metric.Int64Counter
}

// NewAuthMetrics registers the auth counters on meter
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	operations, err := meter.Int64Counter("auth_operations_total",
		metric.WithDescription("Auth operations by name and result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_operations_total: %w", err)
	}

	emails, err := meter.Int64Counter("auth_emails_total",
		metric.WithDescription("Outbound emails by kind and result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_emails_total: %w", err)
	}

	rateLimited, err := meter.Int64Counter("auth_rate_limited_total",
		metric.WithDescription("Requests rejected by the rate limiter"))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_rate_limited_total: %w", err)
	}

	return &AuthMetrics{operations: operations, emails: emails, rateLimited: rateLimited}, nil
}

// RecordOperation counts one auth operation outcome
func (m *AuthMetrics) RecordOperation(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result(err)),
	))
}

// RecordEmail counts one email delivery attempt
func (m *AuthMetrics) RecordEmail(ctx context.Context, kind string, err error) {
	if m == nil {
		return
	}
	m.emails.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result(err)),
	))
}

// RecordRateLimited counts a rejected request
func (m *AuthMetrics) RecordRateLimited(ctx context.Context, route string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
