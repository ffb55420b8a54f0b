package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/handicap-system/attestation"
	"github.com/Dosada05/handicap-system/fraud"
	"github.com/Dosada05/handicap-system/handicap"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// EngineConfig carries the tunables of the handicap and verification engine.
type EngineConfig struct {
	Handicap    handicap.Config
	Fraud       fraud.Config
	Attestation attestation.Config
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Handicap:    handicap.DefaultConfig(),
		Fraud:       fraud.DefaultConfig(),
		Attestation: attestation.DefaultConfig(),
	}
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	Sandbox   bool
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromPhone  string
}

type Config struct {
	DatabaseURL        string
	DBMaxOpenConns     int
	JWTSecretKey       string
	ServerPort         int
	PublicURL          string
	LogLevel           string
	CORSAllowedOrigins []string

	R2       R2Config
	SendGrid SendGridConfig
	Twilio   TwilioConfig

	HandicapRefreshSchedule string
	ReminderSchedule        string
	ReminderAfter           time.Duration

	Engine EngineConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		PublicURL:          strings.TrimRight(getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		R2: R2Config{
			AccountID:       os.Getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		},
		SendGrid: SendGridConfig{
			APIKey:    os.Getenv("SENDGRID_API_KEY"),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", "no-reply@handicap.local"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromPhone:  os.Getenv("TWILIO_FROM_PHONE"),
		},
		HandicapRefreshSchedule: getEnv("HANDICAP_REFRESH_SCHEDULE", "15 3 * * *"),
		ReminderSchedule:        getEnv("ATTESTATION_REMINDER_SCHEDULE", "0 * * * *"),
		ReminderAfter:           24 * time.Hour,
		Engine:                  DefaultEngineConfig(),
	}

	if cfg.DBMaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25")); err != nil || cfg.DBMaxOpenConns < 1 {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be a positive integer")
	}
	if cfg.SendGrid.Sandbox, err = getBool("SENDGRID_SANDBOX", false); err != nil {
		return nil, err
	}

	for name, spec := range map[string]string{
		"HANDICAP_REFRESH_SCHEDULE":     cfg.HandicapRefreshSchedule,
		"ATTESTATION_REMINDER_SCHEDULE": cfg.ReminderSchedule,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}

	if err := applyEngineOverrides(&cfg.Engine); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEngineOverrides(e *EngineConfig) error {
	if v := os.Getenv("VERIFICATION_FRAUD_THRESHOLD"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.LessThanOrEqual(decimal.Zero) || d.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("VERIFICATION_FRAUD_THRESHOLD must be a number in (0, 100], got %q", v)
		}
		e.Attestation = e.Attestation.WithFraudThreshold(d)
	}
	if v := os.Getenv("FRAUD_SCORE_CAP"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("FRAUD_SCORE_CAP must be a positive number, got %q", v)
		}
		e.Fraud = e.Fraud.WithCap(d)
	}
	if v := os.Getenv("HANDICAP_MIN_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > e.Handicap.MaxRounds {
			return fmt.Errorf("HANDICAP_MIN_ROUNDS must be between 1 and %d, got %q", e.Handicap.MaxRounds, v)
		}
		e.Handicap.MinRounds = n
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
