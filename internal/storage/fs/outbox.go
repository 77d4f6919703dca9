package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var outboxNameReplacer = strings.NewReplacer("@", "_at_", "/", "_", "\\", "_", "..", "_", " ", "_")

// WriteOutboxMessage drops a plain-text mail into dir instead of sending
// it. It returns the file path written.
func WriteOutboxMessage(dir, to, subject, body string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	to = strings.TrimSpace(to)
	name := fmt.Sprintf("%s_%s.txt",
		now.UTC().Format("20060102T150405.000Z"),
		outboxNameReplacer.Replace(strings.ToLower(to)))
	msg := fmt.Sprintf("TO: %s\nSUBJECT: %s\n\n%s\n", to, strings.TrimSpace(subject), strings.TrimSpace(body))
	path := filepath.Join(dir, name)
	if err := WriteFileAtomic(path, []byte(msg), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
