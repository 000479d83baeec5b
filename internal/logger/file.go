package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogFileName is the append-only log written inside the log directory.
const LogFileName = "downsort.log"

// FileLogger appends plain log lines to <logDir>/downsort.log.
// The file is shared across runs; each run starts with a header line.
type FileLogger struct {
	path     string
	file     *os.File
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger opens (or creates) the log file in logDir for appending.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(logDir, LogFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fl := &FileLogger{
		path:     path,
		file:     file,
		logLevel: normalizeLogLevel(logLevel),
	}
	fl.write(formatLine(timestamp(), "INFO", "=== downsort started ==="))
	return fl, nil
}

// Path returns the log file location.
func (fl *FileLogger) Path() string {
	return fl.path
}

func (fl *FileLogger) Tracef(format string, args ...interface{}) {
	fl.logWithLevel("TRACE", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Debugf(format string, args ...interface{}) {
	fl.logWithLevel("DEBUG", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Infof(format string, args ...interface{}) {
	fl.logWithLevel("INFO", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Warnf(format string, args ...interface{}) {
	fl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) Errorf(format string, args ...interface{}) {
	fl.logWithLevel("ERROR", fmt.Sprintf(format, args...))
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !shouldLog(fl.logLevel, strings.ToLower(level)) {
		return
	}
	fl.write(formatLine(timestamp(), level, message))
}

// write is a thread-safe helper; each line is flushed immediately.
func (fl *FileLogger) write(line string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file != nil {
		fl.file.WriteString(line)
		fl.file.Sync()
	}
}

// Close flushes and closes the log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return nil
	}
	if err := fl.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := fl.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	fl.file = nil
	return nil
}
