package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var kinlyVars = []string{
	"KINLY_CONFIG", "KINLY_LISTEN_ADDR", "KINLY_DATA_PATH", "KINLY_DB_DRIVER",
	"KINLY_DATABASE_URL", "KINLY_AUTH_SECRET", "KINLY_BASE_URL", "KINLY_SESSION_TTL",
	"KINLY_CONFIRM_TTL", "KINLY_REQUIRE_CONFIRM", "KINLY_TAXONOMY",
	"KINLY_CREATE_REDIRECT_DELAY", "KINLY_DB_BUSY_TIMEOUT", "KINLY_DB_LOCK_TIMEOUT",
	"KINLY_DB_MAX_OPEN_CONNS", "KINLY_LOG_LEVEL", "KINLY_LOG_PRETTY", "KINLY_LOG_FILE",
}

// isolate runs the test inside an empty working directory with every
// KINLY_ variable cleared.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range kinlyVars {
		if prev, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, prev) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaultsAndEnvBootstrap(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" || cfg.DBDriver != DriverSQLite {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionTTL != 168*time.Hour || cfg.ConfirmTTL != 24*time.Hour {
		t.Fatalf("unexpected ttls %v %v", cfg.SessionTTL, cfg.ConfirmTTL)
	}
	if !cfg.RequireConfirm || cfg.CreateRedirectDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected confirm/redirect defaults %+v", cfg)
	}
	data, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("expected .env to be created: %v", err)
	}
	if !strings.Contains(string(data), "KINLY_AUTH_SECRET=") {
		t.Fatalf("expected generated secret in .env, got %q", data)
	}
	if cfg.AuthSecret == "" {
		t.Fatal("expected secret to be loaded from .env")
	}
}

func TestEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	content := "# comment\nKINLY_LISTEN_ADDR=\"0.0.0.0:9000\"\nexport KINLY_TAXONOMY=flat\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	os.Setenv("KINLY_TAXONOMY", "categorized")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Fatalf("expected listen addr from .env, got %q", cfg.ListenAddr)
	}
	if cfg.Taxonomy != "categorized" {
		t.Fatalf("expected env to win over .env, got %q", cfg.Taxonomy)
	}
}

func TestYAMLFileThenEnvOverride(t *testing.T) {
	dir := isolate(t)
	yml := `
listen: 127.0.0.1:7000
taxonomy: flat
database:
  busy_timeout: 2s
auth:
  session_ttl: 1h
  require_confirm: false
log:
  pretty: true
`
	path := filepath.Join(dir, "kinly.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	os.Setenv("KINLY_CONFIG", path)
	os.Setenv("KINLY_LISTEN_ADDR", "127.0.0.1:7100")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:7100" {
		t.Fatalf("expected env override, got %q", cfg.ListenAddr)
	}
	if cfg.Taxonomy != "flat" || cfg.DBBusyTimeout != 2*time.Second || cfg.SessionTTL != time.Hour {
		t.Fatalf("expected yaml values, got %+v", cfg)
	}
	if cfg.RequireConfirm || !cfg.LogPretty {
		t.Fatalf("expected yaml booleans, got %+v", cfg)
	}
}

func TestYAMLBadDuration(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "kinly.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  confirm_ttl: soon\n"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	os.Setenv("KINLY_CONFIG", path)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "auth.confirm_ttl") {
		t.Fatalf("expected confirm_ttl error, got %v", err)
	}
}

func TestValidateDriver(t *testing.T) {
	cfg := Default()
	cfg.DBDriver = DriverPostgres
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing database url error")
	}
	cfg.DatabaseURL = "postgres://localhost/kinly"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.DBDriver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestInvalidEnvValuesFallBack(t *testing.T) {
	isolate(t)
	os.Setenv("KINLY_SESSION_TTL", "forever")
	os.Setenv("KINLY_REQUIRE_CONFIRM", "maybe")
	os.Setenv("KINLY_DB_MAX_OPEN_CONNS", "-3")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionTTL != 168*time.Hour || !cfg.RequireConfirm || cfg.DBMaxOpenConns != 8 {
		t.Fatalf("expected fallbacks, got %+v", cfg)
	}
}

func TestPublicBaseURL(t *testing.T) {
	cfg := Default()
	if got := cfg.PublicBaseURL(); got != "http://127.0.0.1:8080" {
		t.Fatalf("unexpected base url %q", got)
	}
	cfg.BaseURL = "https://kinly.example/"
	if got := cfg.PublicBaseURL(); got != "https://kinly.example" {
		t.Fatalf("unexpected base url %q", got)
	}
}
