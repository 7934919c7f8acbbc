package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Required
	TelegramBotToken string
	OpenAIAPIKey     string
	AllowedUserIDs   []int64

	// Optional with defaults
	DBPath          string
	Timezone        string
	OpenAIModel     string
	Temperature     float64
	UpdatePollEvery time.Duration
	DispatchEvery   time.Duration

	// Optional email delivery
	ResendAPIKey string
	EmailFrom    string
	EmailTo      string

	// Optional Google Calendar sync
	GoogleCredentialsFile string
	GoogleTokenFile       string
	GoogleCalendarID      string
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Required
		TelegramBotToken: os.Getenv("TG_KEY"),
		OpenAIAPIKey:     os.Getenv("OAI_TOKEN"),

		// Optional with defaults
		DBPath:          getEnvOrDefault("NOTIFY_DB_PATH", "./notify.db"),
		Timezone:        getEnvOrDefault("NOTIFY_TIMEZONE", "Asia/Jerusalem"),
		OpenAIModel:     getEnvOrDefault("NOTIFY_OPENAI_MODEL", "gpt-3.5-turbo"),
		Temperature:     getEnvAsFloatOrDefault("NOTIFY_TEMPERATURE", 0.1),
		UpdatePollEvery: getEnvAsDurationOrDefault("NOTIFY_UPDATE_POLL_INTERVAL", 500*time.Millisecond),
		DispatchEvery:   getEnvAsDurationOrDefault("NOTIFY_DISPATCH_INTERVAL", 5*time.Second),

		// Optional email delivery
		ResendAPIKey: os.Getenv("NOTIFY_RESEND_API_KEY"),
		EmailFrom:    os.Getenv("NOTIFY_EMAIL_FROM"),
		EmailTo:      os.Getenv("NOTIFY_EMAIL_TO"),

		// Optional Google Calendar sync
		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),
		GoogleCalendarID:      getEnvOrDefault("NOTIFY_GOOGLE_CALENDAR_ID", "primary"),
	}

	ids, err := ParseUserIDs(os.Getenv("TG_USERS"))
	if err != nil {
		return nil, err
	}
	cfg.AllowedUserIDs = ids

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TG_KEY is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OAI_TOKEN is required")
	}

	return cfg, nil
}

// ParseUserIDs parses the comma-separated Telegram user ID allowlist.
func ParseUserIDs(value string) ([]int64, error) {
	if value == "" {
		return nil, fmt.Errorf("TG_USERS is required (comma-separated Telegram user IDs)")
	}

	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q in TG_USERS: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
