package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	DatabaseUrl string

	// Application base URL (for email links and OAuth callbacks)
	BaseURL string

	// Origin allowed to call the API with credentials (the web client)
	ClientOrigin string

	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Stripe Billing Configuration
	// The secret key is required: the plans catalog cannot function without it,
	// so the process fails fast at startup when it is absent.
	// The webhook secret is optional: when empty the webhook route is disabled
	// entirely (conditional-feature policy).
	StripeSecretKey     string
	StripeWebhookSecret string

	// GitHub OAuth (optional social login; disabled when either is empty)
	GithubClientID     string
	GithubClientSecret string

	// Secret for the OAuth state cookie store
	SessionSecret string

	// Rate limiting for the auth relay
	AuthRateLimit       int
	AuthRateLimitWindow time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// The web client dev server origin
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),

		// SMTP defaults for Mailhog (development)
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@stackpad.dev"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Stackpad"),

		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		GithubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GithubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),

		SessionSecret: getEnv("SESSION_SECRET", "stackpad-dev-secret"),

		AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 30),
		AuthRateLimitWindow: getEnvDuration("AUTH_RATE_LIMIT_WINDOW", time.Minute),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// STRIPE_CLIENT_SECRET is accepted as a legacy alias of STRIPE_SECRET_KEY.
	cfg.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", os.Getenv("STRIPE_CLIENT_SECRET"))
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	return cfg, nil
}

// GithubEnabled reports whether GitHub social login is configured.
func (c *Config) GithubEnabled() bool {
	return c.GithubClientID != "" && c.GithubClientSecret != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
