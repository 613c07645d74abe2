package email

import (
	"context"
	"sync"
	"time"

	"github.com/prperemyshlev/starterkit-auth/pkg/observability"
	"go.uber.org/zap"
)

// Dispatcher sends emails in the background so callers never wait on delivery.
// Each send is bounded by a timeout; failures are logged and counted, never returned.
type Dispatcher struct {
	next    Notifier
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.AuthMetrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher wraps next with asynchronous delivery
func NewDispatcher(next Notifier, timeout time.Duration, logger *zap.Logger, metrics *observability.AuthMetrics) *Dispatcher {
	return &Dispatcher{
		next:    next,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// SendVerification queues a verification email
func (d *Dispatcher) SendVerification(ctx context.Context, to, nickname, token string) error {
	return d.dispatch(ctx, KindVerification, func(ctx context.Context) error {
		return d.next.SendVerification(ctx, to, nickname, token)
	})
}

// SendPasswordReset queues a password reset email
func (d *Dispatcher) SendPasswordReset(ctx context.Context, to, nickname, token string) error {
	return d.dispatch(ctx, KindPasswordReset, func(ctx context.Context) error {
		return d.next.SendPasswordReset(ctx, to, nickname, token)
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, send func(ctx context.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	// The request context ends with the response; delivery must outlive it.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		err := send(sendCtx)
		d.metrics.RecordEmail(sendCtx, kind, err)
		if err != nil {
			d.logger.Error("failed to deliver email",
				zap.String("kind", kind),
				zap.Error(err),
			)
		}
	}()

	return nil
}

// Close stops accepting emails and waits for in-flight sends or ctx expiry
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
