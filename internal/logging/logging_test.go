package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw).Level(); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestPrettyHandlerFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelDebug)).With("user", "u1").WithGroup("req")
	logger.Info("request", "path", "/dashboard", slog.Group("db", "ms", 3))

	out := buf.String()
	for _, want := range []string{"INFO request\n", "  user: u1\n", "  req.path: /dashboard\n", "  req.db.ms: 3\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatal("expected no colour codes for a non-terminal writer")
	}
}

func TestPrettyHandlerAttrsInsideGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelDebug)).WithGroup("req").With("id", "7").WithGroup("db")
	logger.Info("query", "ms", 3)

	out := buf.String()
	for _, want := range []string{"  req.id: 7\n", "  req.db.ms: 3\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "req.req.") || strings.Contains(out, "req.db.id") {
		t.Fatalf("group prefix applied twice:\n%s", out)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelWarn))
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
}

func TestSetupJSONAndTee(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "kinly.log")
	closeFn, err := Setup(Options{Level: "info", File: path, Stdout: &console})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	slog.Debug("debug only in file")
	slog.Info("both", "k", "v")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one console line, got %q", console.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON console output: %v", err)
	}
	if rec["msg"] != "both" || rec["k"] != "v" {
		t.Fatalf("unexpected record %v", rec)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "debug only in file") || !strings.Contains(string(data), "msg=both") {
		t.Fatalf("unexpected log file contents %q", data)
	}
}
