package chat

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	eventLogHeader     = "Logging Started\n"
	eventTimestampForm = "2006-01-02 15:04:05.000000"
)

// EventLog appends connect and disconnect events to a text file. A nil
// *EventLog is valid and discards everything.
type EventLog struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// OpenEventLog creates dir if needed and truncates dir/name, writing the
// header line.
func OpenEventLog(dir, name string, logger *slog.Logger) (*EventLog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(eventLogHeader), 0o644); err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	return &EventLog{path: path, logger: logger, now: time.Now}, nil
}

func (l *EventLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// LogEvent appends "[<timestamp>]: <text>". Failures are reported on the
// operational logger and otherwise ignored.
func (l *EventLog) LogEvent(text string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s]: %s\n", l.now().Format(eventTimestampForm), text)
	if err := l.appendLine(line); err != nil {
		EventLogErrorsTotal.Inc()
		l.logger.Warn("event log append failed", "path", l.path, "error", err)
	}
}

func (l *EventLog) appendLine(line string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
