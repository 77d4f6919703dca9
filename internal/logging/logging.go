package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Options struct {
	Level  string
	Pretty bool
	// File, when set, receives a debug-level text copy of every record.
	File   string
	Stdout io.Writer
}

// Setup installs the process-wide slog logger and returns a func that
// closes the log file, if one was opened.
func Setup(opts Options) (func() error, error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	level := ParseLevel(opts.Level)
	console := newConsoleHandler(out, level, opts.Pretty)
	if strings.TrimSpace(opts.File) == "" {
		slog.SetDefault(slog.New(console))
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.SetDefault(slog.New(console))
		return func() error { return nil }, fmt.Errorf("open log file %s: %w", opts.File, err)
	}
	_, _ = fmt.Fprintf(file, "=== kinly log start %s ===\n", time.Now().Format(time.RFC3339))
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(&teeHandler{handlers: []slog.Handler{console, fileHandler}}))
	return file.Close, nil
}

func newConsoleHandler(w io.Writer, level slog.Leveler, pretty bool) slog.Handler {
	if pretty {
		return NewPrettyHandler(w, level)
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

func ParseLevel(raw string) slog.Leveler {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
	return level
}

type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range t.handlers {
		if h.Enabled(ctx, record.Level) {
			if err := h.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, 0, len(t.handlers))
	for _, h := range t.handlers {
		out = append(out, h.WithAttrs(attrs))
	}
	return &teeHandler{handlers: out}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, 0, len(t.handlers))
	for _, h := range t.handlers {
		out = append(out, h.WithGroup(name))
	}
	return &teeHandler{handlers: out}
}
