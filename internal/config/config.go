package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TelegramPolling = "polling"
	TelegramWebhook = "webhook"
	TelegramOff     = "off"
)

// Config contains all runtime settings for the todo bot.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool
	AdminToken     string

	TelegramToken         string
	TelegramMode          string
	TelegramWebhookSecret string
	TelegramPollTimeout   time.Duration
	AllowedUserIDs        string

	StoreBackend string
	StoreFormat  string
	TasksFile    string
	DatabaseURL  string
	SQLitePath   string

	LogLevel  string
	LogFormat string
}

// LoadEnvFile merges KEY=VALUE pairs from path into the process
// environment without overriding variables that are already set. A
// missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "todobot"),
		AllowAnyOrigin:           false,
		AdminToken:               stringsTrimSpace("APP_ADMIN_TOKEN"),
		TelegramToken:            stringsTrimSpace("API_TOKEN"),
		TelegramMode:             strings.ToLower(envOrDefault("TELEGRAM_MODE", TelegramPolling)),
		TelegramWebhookSecret:    stringsTrimSpace("TELEGRAM_WEBHOOK_SECRET"),
		TelegramPollTimeout:      60 * time.Second,
		AllowedUserIDs:           stringsTrimSpace("ALLOWED_USER_IDS"),
		StoreBackend:             strings.ToLower(envOrDefault("STORE_BACKEND", "file")),
		StoreFormat:              strings.ToLower(stringsTrimSpace("STORE_FORMAT")),
		TasksFile:                envOrDefault("TASKS_FILE", "tasks.json"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		SQLitePath:               envOrDefault("SQLITE_PATH", "todobot.db"),
		LogLevel:                 strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFormat:                strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TelegramPollTimeout, err = durationFromEnv("TELEGRAM_POLL_TIMEOUT", cfg.TelegramPollTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch cfg.TelegramMode {
	case TelegramPolling, TelegramWebhook, TelegramOff:
	default:
		return Config{}, fmt.Errorf("TELEGRAM_MODE must be one of polling, webhook, off")
	}
	switch cfg.StoreBackend {
	case "file", "sqlite", "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND must be one of file, postgres, sqlite, memory")
	}
	switch cfg.StoreFormat {
	case "", "json", "yaml":
	default:
		return Config{}, fmt.Errorf("STORE_FORMAT must be json or yaml")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or console")
	}
	if cfg.TelegramPollTimeout < time.Second {
		return Config{}, fmt.Errorf("TELEGRAM_POLL_TIMEOUT must be at least 1s")
	}
	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}

	return cfg, nil
}

// TelegramEnabled reports whether a Telegram transport should run.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramMode != TelegramOff
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

