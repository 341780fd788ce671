package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint       = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultRetrySchedule  = "@every 10m"
	DefaultRequestTimeout = 30 * time.Second
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken string
	TelegramToken  string
	TelegramChatID int64
	Endpoint       string
	RetrySchedule  string        // robfig/cron spec for the pause between polls
	RequestTimeout time.Duration // bound for a single endpoint call
	FromDate       int64         // initial poll cursor, 0 means "now"
	LogLevel       string
	Environment    string
}

// MissingVariablesError lists every required variable that is not set.
type MissingVariablesError struct {
	Names []string
}

func (e *MissingVariablesError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Names, ", "))
}

// Load reads configuration from environment variables and .env file (if present).
// The returned config is never nil, so the caller can set up logging before
// reporting a *MissingVariablesError or an invalid value.
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var missing []string

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.PracticumToken = os.Getenv("PRACTICUM_TOKEN")
	if cfg.PracticumToken == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}

	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	if chatIDStr == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}

	if len(missing) > 0 {
		return cfg, &MissingVariablesError{Names: missing}
	}

	var err error
	cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	cfg.Endpoint = os.Getenv("ENDPOINT")
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	cfg.RetrySchedule = os.Getenv("RETRY_SCHEDULE")
	if cfg.RetrySchedule == "" {
		cfg.RetrySchedule = DefaultRetrySchedule
	}

	cfg.RequestTimeout = DefaultRequestTimeout
	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		cfg.RequestTimeout, err = time.ParseDuration(timeoutStr)
		if err != nil {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
		}
		if cfg.RequestTimeout <= 0 {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: must be positive, got %s", timeoutStr)
		}
	}

	if fromDateStr := os.Getenv("FROM_DATE"); fromDateStr != "" {
		cfg.FromDate, err = strconv.ParseInt(fromDateStr, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FROM_DATE: %w", err)
		}
		if cfg.FromDate < 0 {
			return cfg, fmt.Errorf("invalid FROM_DATE: must not be negative, got %d", cfg.FromDate)
		}
	}

	return cfg, nil
}

// StartCursor returns the first poll window bound: FROM_DATE when set, otherwise now.
func (c *AppConfig) StartCursor(now time.Time) int64 {
	if c.FromDate > 0 {
		return c.FromDate
	}
	return now.Unix()
}
