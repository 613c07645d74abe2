package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Telemetry bundles the meter provider and the /metrics handler
type Telemetry struct {
	MeterProvider *metric.MeterProvider
	Handler       http.Handler
}

// InitTelemetry initializes OpenTelemetry metrics exported through a private Prometheus registry
func InitTelemetry(serviceName string) (*Telemetry, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithNamespace(prometheusNamespace(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(exporter),
	)

	otel.SetMeterProvider(meterProvider)

	return &Telemetry{
		MeterProvider: meterProvider,
		Handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// prometheusNamespace turns "starterkit-auth" into "starterkit_auth"
func prometheusNamespace(serviceName string) string {
	out := []byte(serviceName)
	for i, c := range out {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			out[i] = '_'
		}
	}
	return string(out)
}

// InitLogger initializes structured logger. The "test" environment gets a no-op logger.
func InitLogger(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch env {
	case "production":
		logger, err = zap.NewProduction()
	case "test":
		logger = zap.NewNop()
	default:
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	zap.ReplaceGlobals(logger)

	return logger, nil
}

// Shutdown flushes metrics and the logger
func (t *Telemetry) Shutdown(ctx context.Context, logger *zap.Logger) error {
	var errs []error

	if t != nil && t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown meter provider", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if logger != nil {
		// Sync fails on stdout/stderr in some environments
		_ = logger.Sync()
	}

	return errors.Join(errs...)
}
