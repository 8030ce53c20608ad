// Package config loads runtime configuration from the environment.
// A .env file is read first when present; required values fail fast.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultBaseURL = "http://localhost:3000"

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	// BaseURL is the public front-end origin used to build magic links and redirects.
	BaseURL string

	JWTSecret  string
	SessionTTL time.Duration

	Email  EmailConfig
	Google GoogleConfig

	GeminiAPIKey       string
	TokenPurgeSchedule string
	SendThrottle       time.Duration

	Log struct {
		Level  string
		Format string
	}
}

type EmailConfig struct {
	Provider        string // resend | gmail | log
	From            string
	ResendAPIKey    string
	ResendBaseURL   string
	GmailCredential string
	GmailToken      string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads the .env file (if any) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.Port = getEnv("PORT", "8080")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.BaseURL = strings.TrimRight(firstNonEmpty(
		os.Getenv("NEXTAUTH_URL"),
		os.Getenv("NEXT_PUBLIC_MAIN_URL"),
		defaultBaseURL,
	), "/")
	cfg.SessionTTL = time.Duration(parseInt(getEnv("SESSION_TTL_HOURS", "720"), 720)) * time.Hour

	cfg.Email.Provider = strings.ToLower(getEnv("EMAIL_PROVIDER", "log"))
	cfg.Email.From = getEnv("EMAIL_FROM", "StudyLink <noreply@studylink.fr>")
	cfg.Email.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.Email.ResendBaseURL = getEnv("RESEND_BASE_URL", "https://api.resend.com")
	cfg.Email.GmailCredential = getEnv("GMAIL_CREDENTIALS_FILE", "credential.json")
	cfg.Email.GmailToken = getEnv("GMAIL_TOKEN_FILE", "token.json")

	switch cfg.Email.Provider {
	case "resend":
		if cfg.Email.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	case "gmail", "log":
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Email.Provider)
	}

	cfg.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.TokenPurgeSchedule = getEnv("TOKEN_PURGE_SCHEDULE", "@every 1h")
	cfg.SendThrottle = time.Duration(parseInt(getEnv("MAGIC_LINK_THROTTLE_SECONDS", "60"), 60)) * time.Second

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
