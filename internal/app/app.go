package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/starterkit-auth/internal/config"
	"github.com/prperemyshlev/starterkit-auth/internal/oauth"
	"github.com/prperemyshlev/starterkit-auth/internal/repository"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	if cfg.Google.ClientID == "" {
		infra.Logger().Warn("GOOGLE_CLIENT_ID is not set, Google sign-in is disabled")
	}
	if cfg.Payments.WebhookSecret == "" {
		infra.Logger().Warn("PAYMENT_WEBHOOK_SECRET is not set, payment webhooks are rejected")
	}

	router := NewRouter(cfg, RouterDeps{
		Repos:          repository.NewRepositories(infra.Postgres()),
		Redis:          infra.Redis(),
		Notifier:       infra.Mailer(),
		Verifier:       oauth.NewGoogleVerifier(cfg.Google.ClientID),
		Logger:         infra.Logger(),
		Metrics:        infra.Metrics(),
		MetricsHandler: infra.Telemetry().Handler,
		Health: NewHealthChecker(map[string]Pinger{
			"postgres": infra.Postgres(),
			"redis":    infra.Redis(),
		}),
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

// Shutdown stops the HTTP server before releasing infrastructure
func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	serverErr := a.server.Shutdown(ctx)
	infraErr := a.infra.Shutdown(ctx)

	if err := errors.Join(serverErr, infraErr); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
