package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout of KINLY_CONFIG. Unset keys keep the
// defaults.
type fileConfig struct {
	Listen   string `yaml:"listen"`
	DataPath string `yaml:"data_path"`
	BaseURL  string `yaml:"base_url"`
	Taxonomy string `yaml:"taxonomy"`
	Database struct {
		Driver       string `yaml:"driver"`
		URL          string `yaml:"url"`
		BusyTimeout  string `yaml:"busy_timeout"`
		LockTimeout  string `yaml:"lock_timeout"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"database"`
	Auth struct {
		Secret         string `yaml:"secret"`
		SessionTTL     string `yaml:"session_ttl"`
		ConfirmTTL     string `yaml:"confirm_ttl"`
		RequireConfirm *bool  `yaml:"require_confirm"`
	} `yaml:"auth"`
	UI struct {
		CreateRedirectDelay string `yaml:"create_redirect_delay"`
	} `yaml:"ui"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ListenAddr, fc.Listen)
	setString(&cfg.DataPath, fc.DataPath)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.Taxonomy, fc.Taxonomy)
	setString(&cfg.DBDriver, fc.Database.Driver)
	setString(&cfg.DatabaseURL, fc.Database.URL)
	setString(&cfg.AuthSecret, fc.Auth.Secret)
	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.LogFile, fc.Log.File)
	if fc.Database.MaxOpenConns > 0 {
		cfg.DBMaxOpenConns = fc.Database.MaxOpenConns
	}
	if fc.Auth.RequireConfirm != nil {
		cfg.RequireConfirm = *fc.Auth.RequireConfirm
	}
	if fc.Log.Pretty != nil {
		cfg.LogPretty = *fc.Log.Pretty
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"database.busy_timeout", fc.Database.BusyTimeout, &cfg.DBBusyTimeout},
		{"database.lock_timeout", fc.Database.LockTimeout, &cfg.DBLockTimeout},
		{"auth.session_ttl", fc.Auth.SessionTTL, &cfg.SessionTTL},
		{"auth.confirm_ttl", fc.Auth.ConfirmTTL, &cfg.ConfirmTTL},
		{"ui.create_redirect_delay", fc.UI.CreateRedirectDelay, &cfg.CreateRedirectDelay},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config %s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
