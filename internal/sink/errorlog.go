package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrorLog appends "timestamp | id | message" lines for failures that do
// not stop a harvest: degraded records, failed details, failed attachments.
type ErrorLog struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// OpenErrorLog opens <dir>/<source>.errors.log for appending.
func OpenErrorLog(dir, source string) (*ErrorLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, source+".errors.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &ErrorLog{file: f, now: time.Now}, nil
}

// Record writes one entry. Newlines in message are flattened.
func (l *ErrorLog) Record(id, message string) error {
	if l == nil {
		return nil
	}
	message = strings.Join(strings.Fields(message), " ")

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := fmt.Fprintf(l.file, "%s | %s | %s\n", l.now().UTC().Format(time.RFC3339), id, message)
	return err
}

// Close closes the log file.
func (l *ErrorLog) Close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}
