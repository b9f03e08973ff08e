package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// PhonePe merchant credentials issued by the gateway.
	PhonePeMerchantID string
	PhonePeSaltKey    string
	PhonePeSaltIndex  string
	PhonePeBaseURL    string

	// Outbound gateway call policy.
	GatewayTimeout        time.Duration
	GatewayRetryMax       int
	GatewayRetryBase      time.Duration
	GatewayBreakerMinReq  int
	GatewayBreakerRatio   float64
	GatewayBreakerOpenFor time.Duration

	// Confirmation email delivery.
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	EmailFrom      string
	NotifyMaxRetry int
	NotifyDedupTTL time.Duration

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	// Rate limit for the payment endpoints, in ulule/limiter notation
	// (e.g. "30-M" for thirty requests per minute).
	PaymentRateLimit string

	MaxBodyBytes int64
}

// Load reads configuration from environment variables and optional .env files.
// Missing gateway credentials fail here, before any request is served.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8081"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PhonePeMerchantID: strings.TrimSpace(k.String("PHONEPE_MERCHANT_ID")),
		PhonePeSaltKey:    strings.TrimSpace(k.String("PHONEPE_SALT_KEY")),
		PhonePeSaltIndex:  strings.TrimSpace(k.String("PHONEPE_SALT_INDEX")),
		PhonePeBaseURL:    valueOrDefault(k.String("PHONEPE_BASE_URL"), "https://api.phonepe.com/apis/hermes"),

		GatewayTimeout:        parseDuration(k.String("GATEWAY_TIMEOUT"), "10s"),
		GatewayRetryMax:       parseInt(k.String("GATEWAY_RETRY_MAX_ATTEMPTS"), 3),
		GatewayRetryBase:      parseDuration(k.String("GATEWAY_RETRY_BASE"), "200ms"),
		GatewayBreakerMinReq:  parseInt(k.String("GATEWAY_BREAKER_MIN_REQUESTS"), 10),
		GatewayBreakerRatio:   parseFloat(k.String("GATEWAY_BREAKER_FAILURE_RATIO"), 0.5),
		GatewayBreakerOpenFor: parseDuration(k.String("GATEWAY_BREAKER_OPEN_FOR"), "30s"),

		SMTPHost:       strings.TrimSpace(k.String("SMTP_HOST")),
		SMTPPort:       parseInt(k.String("SMTP_PORT"), 587),
		SMTPUsername:   k.String("SMTP_USERNAME"),
		SMTPPassword:   k.String("SMTP_PASSWORD"),
		EmailFrom:      valueOrDefault(k.String("EMAIL_FROM"), "orders@glowmart.local"),
		NotifyMaxRetry: parseInt(k.String("NOTIFY_MAX_RETRY"), 5),
		NotifyDedupTTL: parseDuration(k.String("NOTIFY_DEDUP_TTL"), "24h"),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),

		PaymentRateLimit: valueOrDefault(k.String("PAYMENT_RATE_LIMIT"), "30-M"),

		MaxBodyBytes: int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.PhonePeMerchantID == "" {
		return nil, errors.New("PHONEPE_MERCHANT_ID is required")
	}
	if cfg.PhonePeSaltKey == "" {
		return nil, errors.New("PHONEPE_SALT_KEY is required")
	}
	if cfg.PhonePeSaltIndex == "" {
		return nil, errors.New("PHONEPE_SALT_INDEX is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8081"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return f
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
