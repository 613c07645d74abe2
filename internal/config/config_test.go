package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	testAccessSecret  = "test-access-secret-that-is-at-least-32-characters"
	testRefreshSecret = "test-refresh-secret-that-is-at-least-32-characters"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", testAccessSecret)
	t.Setenv("JWT_REFRESH_SECRET", testRefreshSecret)
}

func TestLoad(t *testing.T) {
	setSecrets(t)

	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	// Test default values
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected Server.Port to be '8080', got '%s'", cfg.Server.Port)
	}

	if cfg.Server.ReadTimeout.Duration != 15*time.Second {
		t.Errorf("Expected Server.ReadTimeout to be 15s, got %v", cfg.Server.ReadTimeout.Duration)
	}

	if !cfg.Postgres.AutoMigrate {
		t.Error("Expected Postgres.AutoMigrate to default to true")
	}

	if cfg.JWT.AccessTokenExpiry.Duration != 15*time.Minute {
		t.Errorf("Expected JWT.AccessTokenExpiry to be 15m, got %v", cfg.JWT.AccessTokenExpiry.Duration)
	}

	if cfg.JWT.RefreshTokenExpiry.Duration != 7*24*time.Hour {
		t.Errorf("Expected JWT.RefreshTokenExpiry to be 7d, got %v", cfg.JWT.RefreshTokenExpiry.Duration)
	}

	if cfg.Security.BCryptCost != 12 {
		t.Errorf("Expected Security.BCryptCost to be 12, got %d", cfg.Security.BCryptCost)
	}

	if cfg.Security.PasswordResetExpiry.Duration != time.Hour {
		t.Errorf("Expected Security.PasswordResetExpiry to be 1h, got %v", cfg.Security.PasswordResetExpiry.Duration)
	}

	if cfg.Email.SendTimeout.Duration != 10*time.Second {
		t.Errorf("Expected Email.SendTimeout to be 10s, got %v", cfg.Email.SendTimeout.Duration)
	}

	if cfg.Email.Enabled() {
		t.Error("Expected SMTP delivery to be disabled without EMAIL_SMTP_HOST")
	}

	if cfg.Google.ClientID != "" {
		t.Errorf("Expected Google.ClientID to be empty, got '%s'", cfg.Google.ClientID)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be 'development', got '%s'", cfg.Env)
	}

	if len(cfg.CORS.AllowedMethods) == 0 {
		t.Error("Expected CORS.AllowedMethods to have at least one value")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_ACCESS_SECRET":        testAccessSecret,
		"JWT_REFRESH_SECRET":       testRefreshSecret,
		"SERVER_PORT":              "9090",
		"POSTGRES_HOST":            "postgres.example.com",
		"POSTGRES_AUTO_MIGRATE":    "false",
		"JWT_ACCESS_TOKEN_EXPIRY":  "30m",
		"JWT_REFRESH_TOKEN_EXPIRY": "30d",
		"GOOGLE_CLIENT_ID":         "client.apps.googleusercontent.com",
		"EMAIL_SMTP_HOST":          "smtp.example.com",
		"EMAIL_SMTP_PORT":          "2525",
		"ENV":                      "production",
	}))
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected Server.Port to be '9090', got '%s'", cfg.Server.Port)
	}

	if cfg.Postgres.Host != "postgres.example.com" {
		t.Errorf("Expected Postgres.Host to be 'postgres.example.com', got '%s'", cfg.Postgres.Host)
	}

	if cfg.Postgres.AutoMigrate {
		t.Error("Expected Postgres.AutoMigrate to be false")
	}

	if cfg.JWT.AccessTokenExpiry.Duration != 30*time.Minute {
		t.Errorf("Expected JWT.AccessTokenExpiry to be 30m, got %v", cfg.JWT.AccessTokenExpiry.Duration)
	}

	if cfg.JWT.RefreshTokenExpiry.Duration != 30*24*time.Hour {
		t.Errorf("Expected JWT.RefreshTokenExpiry to be 30d, got %v", cfg.JWT.RefreshTokenExpiry.Duration)
	}

	if cfg.Google.ClientID != "client.apps.googleusercontent.com" {
		t.Errorf("Unexpected Google.ClientID '%s'", cfg.Google.ClientID)
	}

	if !cfg.Email.Enabled() || cfg.Email.SMTPPort != 2525 {
		t.Errorf("Expected SMTP on port 2525, got enabled=%v port=%d", cfg.Email.Enabled(), cfg.Email.SMTPPort)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
}

func TestLoadSecretValidation(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
	}{
		{"missing access secret", "", testRefreshSecret},
		{"missing refresh secret", testAccessSecret, ""},
		{"short access secret", "short", testRefreshSecret},
		{"short refresh secret", testAccessSecret, "short"},
		{"identical secrets", testAccessSecret, testAccessSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			if tt.access != "" {
				env["JWT_ACCESS_SECRET"] = tt.access
			}
			if tt.refresh != "" {
				env["JWT_REFRESH_SECRET"] = tt.refresh
			}

			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestLoadRejectsNonPositiveRateLimit(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_ACCESS_SECRET":   testAccessSecret,
		"JWT_REFRESH_SECRET":  testRefreshSecret,
		"RATE_LIMIT_REQUESTS": "0",
	}))
	if err == nil {
		t.Error("Expected error for RATE_LIMIT_REQUESTS=0")
	}
}

func TestLoadPaymentWebhookSecret(t *testing.T) {
	base := map[string]string{
		"JWT_ACCESS_SECRET":  testAccessSecret,
		"JWT_REFRESH_SECRET": testRefreshSecret,
	}

	cfg, err := load(context.Background(), envconfig.MapLookuper(base))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Payments.WebhookSecret != "" {
		t.Errorf("Expected empty webhook secret by default, got %q", cfg.Payments.WebhookSecret)
	}

	base["PAYMENT_WEBHOOK_SECRET"] = "short"
	if _, err := load(context.Background(), envconfig.MapLookuper(base)); err == nil {
		t.Error("Expected error for short PAYMENT_WEBHOOK_SECRET")
	}

	base["PAYMENT_WEBHOOK_SECRET"] = "webhook-secret-that-is-at-least-32-characters"
	cfg, err = load(context.Background(), envconfig.MapLookuper(base))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Payments.WebhookSecret != base["PAYMENT_WEBHOOK_SECRET"] {
		t.Errorf("Expected webhook secret to be loaded, got %q", cfg.Payments.WebhookSecret)
	}
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "test_user",
		Password: "test_password",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	dsn := pg.DSN()
	expected := "host=localhost port=5432 user=test_user password=test_password dbname=test_db sslmode=disable"
	if dsn != expected {
		t.Errorf("Expected DSN to be '%s', got '%s'", expected, dsn)
	}
}

func TestRedisAddress(t *testing.T) {
	redis := RedisConfig{
		Host: "localhost",
		Port: "6379",
	}

	addr := redis.Address()
	expected := "localhost:6379"
	if addr != expected {
		t.Errorf("Expected Address to be '%s', got '%s'", expected, addr)
	}
}
