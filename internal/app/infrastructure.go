package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/starterkit-auth/internal/config"
	"github.com/prperemyshlev/starterkit-auth/internal/email"
	"github.com/prperemyshlev/starterkit-auth/internal/migrations"
	"github.com/prperemyshlev/starterkit-auth/pkg/database"
	"github.com/prperemyshlev/starterkit-auth/pkg/observability"
	"go.uber.org/zap"
)

type Infrastructure interface {
	Postgres() *database.Postgres
	Redis() *database.Redis
	Logger() *zap.Logger
	Telemetry() *observability.Telemetry
	Metrics() *observability.AuthMetrics
	Mailer() *email.Dispatcher

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	postgres  *database.Postgres
	redis     *database.Redis
	logger    *zap.Logger
	telemetry *observability.Telemetry
	metrics   *observability.AuthMetrics
	mailer    *email.Dispatcher
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	postgres, err := database.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	i.postgres = postgres

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(migrations.FS); err != nil {
			_ = i.postgres.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	redis, err := database.NewRedis(ctx, cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = i.postgres.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	i.redis = redis

	telemetry, err := observability.InitTelemetry(serviceName)
	if err != nil {
		_ = i.postgres.Close()
		_ = i.redis.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.telemetry = telemetry

	metrics, err := observability.NewAuthMetrics(telemetry.MeterProvider.Meter(serviceName))
	if err != nil {
		_ = i.postgres.Close()
		_ = i.redis.Close()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	i.metrics = metrics

	i.mailer = email.NewDispatcher(
		email.NewMailer(newSender(cfg.Email, logger), cfg.AppURL),
		cfg.Email.SendTimeout.Duration,
		logger,
		metrics,
	)

	return i, nil
}

// newSender picks SMTP delivery when configured and logs messages otherwise
func newSender(cfg config.EmailConfig, logger *zap.Logger) email.Sender {
	if !cfg.Enabled() {
		logger.Warn("SMTP is not configured, emails will be logged instead of sent")
		return email.NewLogSender(logger)
	}
	return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From)
}

func (i *infrastructure) Postgres() *database.Postgres {
	return i.postgres
}

func (i *infrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) Telemetry() *observability.Telemetry {
	return i.telemetry
}

func (i *infrastructure) Metrics() *observability.AuthMetrics {
	return i.metrics
}

func (i *infrastructure) Mailer() *email.Dispatcher {
	return i.mailer
}

// Shutdown waits for queued emails, then releases connections and flushes telemetry
func (i *infrastructure) Shutdown(ctx context.Context) error {
	mailErr := i.mailer.Close(ctx)

	errs := make(chan error, 3)

	go func() { errs <- i.postgres.Close() }()
	go func() { errs <- i.redis.Close() }()
	go func() { errs <- i.telemetry.Shutdown(ctx, i.logger) }()

	return errors.Join(mailErr, <-errs, <-errs, <-errs)
}
