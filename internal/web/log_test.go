package web

import (
	"fmt"
	"io"
	"os"
	"testing"

	"kinly/internal/logging"
)

// TestMain keeps handler logs out of test output. Set LOG_FILE to capture
// them at debug level; KINLY_LOG_LEVEL raises the console level.
func TestMain(m *testing.M) {
	level := os.Getenv("KINLY_LOG_LEVEL")
	if level == "" {
		level = "debug"
	}
	closeLog, err := logging.Setup(logging.Options{
		Level:  level,
		File:   os.Getenv("LOG_FILE"),
		Stdout: io.Discard,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "test logger:", err)
	}
	code := m.Run()
	_ = closeLog()
	os.Exit(code)
}
