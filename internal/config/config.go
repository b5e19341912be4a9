package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the intake server.
type Config struct {
	Addr           string
	FrontendURL    string
	LogLevel       string
	TrustForwarded bool

	RecaptchaSiteKey   string
	RecaptchaSecretKey string
	RecaptchaMinScore  float64

	ResendAPIKey      string
	MailFrom          string
	OwnerEmail        string
	BusinessName      string
	MailRatePerSecond float64

	RateLimitMax        int
	RateLimitWindow     time.Duration
	RateLimitSweepEvery time.Duration
	RedisURL            string

	DatabaseURL           string
	SheetsCredentialsJSON string
	SheetsSpreadsheetID   string
	SheetsRange           string
	WebhookURL            string

	MongoURI                     string
	MongoDatabase                string
	FailedNotificationCollection string

	ContactPolicy      string
	ConsultationPolicy string
	ChannelTimeout     time.Duration
}

// Load reads environment variables and returns a populated Config.
// Unset keys fall back to defaults; malformed numbers and durations are errors.
func Load() (Config, error) {
	cfg := Config{
		Addr:           envOrDefault("HTTP_ADDR", ":8080"),
		FrontendURL:    envOrDefault("FRONTEND_URL", "http://localhost:3000"),
		LogLevel:       envOrDefault("LOG_LEVEL", "INFO"),
		TrustForwarded: !strings.EqualFold(strings.TrimSpace(os.Getenv("TRUST_PROXY")), "false"),

		RecaptchaSiteKey:   strings.TrimSpace(os.Getenv("RECAPTCHA_SITE_KEY")),
		RecaptchaSecretKey: strings.TrimSpace(os.Getenv("RECAPTCHA_SECRET_KEY")),

		ResendAPIKey: strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		MailFrom:     strings.TrimSpace(os.Getenv("MAIL_FROM")),
		OwnerEmail:   strings.TrimSpace(os.Getenv("OWNER_EMAIL")),
		BusinessName: envOrDefault("BUSINESS_NAME", "Northfield Advisory"),

		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),

		DatabaseURL:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SheetsCredentialsJSON: strings.TrimSpace(os.Getenv("SHEETS_CREDENTIALS_JSON")),
		SheetsSpreadsheetID:   strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID")),
		SheetsRange:           envOrDefault("SHEETS_RANGE", "Inquiries!A1"),
		WebhookURL:            strings.TrimSpace(os.Getenv("WEBHOOK_URL")),

		MongoURI:                     strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:                envOrDefault("MONGO_DB", "intake"),
		FailedNotificationCollection: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),

		ContactPolicy:      envOrDefault("CONTACT_DISPATCH_POLICY", "all_or_nothing"),
		ConsultationPolicy: envOrDefault("CONSULTATION_DISPATCH_POLICY", "all_or_nothing"),
	}

	var err error
	if cfg.RecaptchaMinScore, err = floatOrDefault("RECAPTCHA_MIN_SCORE", 0.5); err != nil {
		return Config{}, err
	}
	if cfg.RecaptchaMinScore < 0 || cfg.RecaptchaMinScore > 1 {
		return Config{}, fmt.Errorf("RECAPTCHA_MIN_SCORE must be between 0 and 1, got %v", cfg.RecaptchaMinScore)
	}
	if cfg.MailRatePerSecond, err = floatOrDefault("MAIL_RATE_PER_SECOND", 2); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMax, err = intOrDefault("RATE_LIMIT_MAX", 3); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitMax < 1 {
		return Config{}, fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow, err = durationOrDefault("RATE_LIMIT_WINDOW", 60*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitSweepEvery, err = durationOrDefault("RATE_LIMIT_SWEEP_EVERY", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ChannelTimeout, err = durationOrDefault("CHANNEL_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatOrDefault(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
