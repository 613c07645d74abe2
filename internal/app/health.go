package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	checks map[string]Pinger
}

func NewHealthChecker(checks map[string]Pinger) *HealthChecker {
	return &HealthChecker{
		checks: checks,
	}
}

// check pings every dependency concurrently and joins the failures
func (h *HealthChecker) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := make([]error, len(names))
	done := make(chan struct{}, len(names))

	for i, name := range names {
		go func(i int, name string) {
			if err := h.checks[name].Ping(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", name, err)
			}
			done <- struct{}{}
		}(i, name)
	}

	for range names {
		<-done
	}

	return errors.Join(errs...)
}

func (h *HealthChecker) Handler(c *gin.Context) {
	if err := h.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
	})
}
