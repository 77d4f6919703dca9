package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	ListenAddr          string
	DataPath            string
	DBDriver            string
	DatabaseURL         string
	AuthSecret          string
	BaseURL             string
	SessionTTL          time.Duration
	ConfirmTTL          time.Duration
	RequireConfirm      bool
	Taxonomy            string
	CreateRedirectDelay time.Duration
	DBBusyTimeout       time.Duration
	DBLockTimeout       time.Duration
	DBMaxOpenConns      int
	LogLevel            string
	LogPretty           bool
	LogFile             string
}

func Default() Config {
	return Config{
		ListenAddr:          "127.0.0.1:8080",
		DataPath:            "./.kinly",
		DBDriver:            DriverSQLite,
		SessionTTL:          7 * 24 * time.Hour,
		ConfirmTTL:          24 * time.Hour,
		RequireConfirm:      true,
		Taxonomy:            "categorized",
		CreateRedirectDelay: 1500 * time.Millisecond,
		DBBusyTimeout:       5 * time.Second,
		DBLockTimeout:       5 * time.Second,
		DBMaxOpenConns:      8,
		LogLevel:            "info",
	}
}

// Load bootstraps .env in the working directory, applies the optional
// KINLY_CONFIG YAML file, then lets environment variables override both.
func Load() (Config, error) {
	initEnvFile()
	cfg := Default()
	if path := os.Getenv("KINLY_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = envOr("KINLY_LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataPath = envOr("KINLY_DATA_PATH", cfg.DataPath)
	cfg.DBDriver = strings.ToLower(envOr("KINLY_DB_DRIVER", cfg.DBDriver))
	cfg.DatabaseURL = envOr("KINLY_DATABASE_URL", cfg.DatabaseURL)
	cfg.AuthSecret = envOr("KINLY_AUTH_SECRET", cfg.AuthSecret)
	cfg.BaseURL = envOr("KINLY_BASE_URL", cfg.BaseURL)
	cfg.SessionTTL = parseDurationOr("KINLY_SESSION_TTL", cfg.SessionTTL)
	cfg.ConfirmTTL = parseDurationOr("KINLY_CONFIRM_TTL", cfg.ConfirmTTL)
	cfg.RequireConfirm = parseBoolOr("KINLY_REQUIRE_CONFIRM", cfg.RequireConfirm)
	cfg.Taxonomy = envOr("KINLY_TAXONOMY", cfg.Taxonomy)
	cfg.CreateRedirectDelay = parseDurationOr("KINLY_CREATE_REDIRECT_DELAY", cfg.CreateRedirectDelay)
	cfg.DBBusyTimeout = parseDurationOr("KINLY_DB_BUSY_TIMEOUT", cfg.DBBusyTimeout)
	cfg.DBLockTimeout = parseDurationOr("KINLY_DB_LOCK_TIMEOUT", cfg.DBLockTimeout)
	cfg.DBMaxOpenConns = parseIntOr("KINLY_DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns)
	cfg.LogLevel = envOr("KINLY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogPretty = parseBoolOr("KINLY_LOG_PRETTY", cfg.LogPretty)
	cfg.LogFile = envOr("KINLY_LOG_FILE", cfg.LogFile)
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("KINLY_DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown db driver %q", c.DBDriver)
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return fmt.Errorf("data path is required")
	}
	return nil
}

func (c Config) SQLitePath() string {
	return filepath.Join(c.DataPath, "kinly.db")
}

func (c Config) LockPath() string {
	return filepath.Join(c.DataPath, "kinly.lock")
}

func (c Config) SecretPath() string {
	return filepath.Join(c.DataPath, "secret.key")
}

func (c Config) OutboxPath() string {
	return filepath.Join(c.DataPath, "outbox")
}

// PublicBaseURL is the prefix used for links handed out of band, such as
// confirmation links.
func (c Config) PublicBaseURL() string {
	if v := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"); v != "" {
		return v
	}
	return "http://" + c.ListenAddr
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func parseBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
