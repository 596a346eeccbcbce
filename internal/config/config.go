package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type StorageBackend string

const (
	BackendJSON   StorageBackend = "json"
	BackendSQLite StorageBackend = "sqlite"
)

type AppConfig struct {
	TelegramConfig
	StorageConfig
	RedisConfig
	HTTPConfig

	SessionTTL time.Duration
	LogLevel   slog.Level
}

type TelegramConfig struct {
	Token       string
	AdminChatID int64
	WebAppURL   string
}

type StorageConfig struct {
	Backend      StorageBackend
	UserDataFile string
	SQLiteDSN    string
}

// RedisConfig is optional; an empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type HTTPConfig struct {
	Port int
}

// Load builds the configuration from environment lookups. Every problem is
// reported, not only the first one.
func Load(getenv func(string) string) (AppConfig, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }
	orDefault := func(key, def string) string {
		if v := get(key); v != "" {
			return v
		}
		return def
	}

	var errs []error
	cfg := AppConfig{
		TelegramConfig: TelegramConfig{
			Token:     get("TOKEN"),
			WebAppURL: get("WEB_APP_URL"),
		},
		StorageConfig: StorageConfig{
			Backend:      StorageBackend(strings.ToLower(orDefault("STORAGE_BACKEND", string(BackendJSON)))),
			UserDataFile: orDefault("USER_DATA_FILE", "user_data.json"),
			SQLiteDSN:    orDefault("SQLITE_DSN", "botjoy.db"),
		},
		RedisConfig: RedisConfig{
			Addr:     get("REDIS_ADDR"),
			Password: getenv("REDIS_PASSWORD"),
		},
	}

	if cfg.Token == "" {
		errs = append(errs, errors.New("TOKEN is required"))
	}

	if raw := get("ADMIN_CHAT_ID"); raw == "" {
		errs = append(errs, errors.New("ADMIN_CHAT_ID is required"))
	} else if id, err := strconv.ParseInt(raw, 10, 64); err != nil {
		errs = append(errs, fmt.Errorf("ADMIN_CHAT_ID must be an integer: %w", err))
	} else {
		cfg.AdminChatID = id
	}

	if cfg.WebAppURL == "" {
		errs = append(errs, errors.New("WEB_APP_URL is required"))
	} else if u, err := url.Parse(cfg.WebAppURL); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		errs = append(errs, fmt.Errorf("WEB_APP_URL must be an absolute http(s) URL, got %q", cfg.WebAppURL))
	}

	port, err := strconv.Atoi(orDefault("PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %q", get("PORT")))
	}
	cfg.Port = port

	switch cfg.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendJSON, BackendSQLite, cfg.Backend))
	}

	if raw := get("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			errs = append(errs, fmt.Errorf("REDIS_DB must be a non-negative integer, got %q", raw))
		}
		cfg.DB = db
	}

	ttl, err := time.ParseDuration(orDefault("SESSION_TTL", "720h"))
	if err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be a positive duration, got %q", get("SESSION_TTL")))
	}
	cfg.SessionTTL = ttl

	if err := cfg.LogLevel.UnmarshalText([]byte(orDefault("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if len(errs) > 0 {
		return AppConfig{}, errors.Join(errs...)
	}
	return cfg, nil
}
