package config

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sethvargo/go-envconfig"
)

// MinSecretLength is the minimum length of each JWT signing secret
const MinSecretLength = 32

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	Google   GoogleConfig   `env:",prefix=GOOGLE_"`
	Email    EmailConfig    `env:",prefix=EMAIL_"`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Payments PaymentsConfig `env:",prefix=PAYMENT_"`
	AppURL   string         `env:"APP_PUBLIC_URL,default=http://localhost:3000"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host        string `env:"HOST,default=localhost"`
	Port        string `env:"PORT,default=5432"`
	User        string `env:"USER,default=starterkit"`
	Password    string `env:"PASSWORD,default=starterkit_password"`
	DBName      string `env:"DB,default=starterkit_db"`
	SSLMode     string `env:"SSLMODE,default=disable"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	AccessSecret       string   `env:"ACCESS_SECRET,required"`
	RefreshSecret      string   `env:"REFRESH_SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
}

type SecurityConfig struct {
	BCryptCost          int      `env:"BCRYPT_COST,default=12"`
	RateLimitRequests   int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow     Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
	PasswordResetExpiry Duration `env:"PASSWORD_RESET_EXPIRY,default=1h"`
}

// GoogleConfig holds the OAuth client the ID tokens are issued for.
// An empty ClientID disables Google sign-in.
type GoogleConfig struct {
	ClientID string `env:"CLIENT_ID,default="`
}

// EmailConfig configures outbound SMTP. An empty SMTPHost logs messages instead of sending them.
type EmailConfig struct {
	SMTPHost     string   `env:"SMTP_HOST,default="`
	SMTPPort     int      `env:"SMTP_PORT,default=587"`
	SMTPUsername string   `env:"SMTP_USERNAME,default="`
	SMTPPassword string   `env:"SMTP_PASSWORD,default="`
	From         string   `env:"FROM,default=no-reply@starterkit.local"`
	SendTimeout  Duration `env:"SEND_TIMEOUT,default=10s"`
}

// PaymentsConfig authenticates the payment provider's server-to-server webhook.
// An empty WebhookSecret rejects every webhook call.
type PaymentsConfig struct {
	WebhookSecret string `env:"WEBHOOK_SECRET,default="`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// Enabled reports whether SMTP delivery is configured
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != ""
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &config,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if len(c.JWT.AccessSecret) < MinSecretLength {
		return fmt.Errorf("JWT_ACCESS_SECRET must be at least %d characters long", MinSecretLength)
	}
	if len(c.JWT.RefreshSecret) < MinSecretLength {
		return fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters long", MinSecretLength)
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.AccessTokenExpiry.Duration <= 0 || c.JWT.RefreshTokenExpiry.Duration <= 0 {
		return errors.New("JWT token expiries must be positive")
	}
	if c.Payments.WebhookSecret != "" && len(c.Payments.WebhookSecret) < MinSecretLength {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be at least %d characters long", MinSecretLength)
	}
	if c.Security.RateLimitRequests <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS must be positive")
	}
	return nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
