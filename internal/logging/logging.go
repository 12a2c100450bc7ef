// Package logging builds the application logger. Every run writes to its own
// timestamped file, whose path is shown to the user whenever an error needs detail.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const fileTimeFormat = "2006_01_02_15_04_05"

// Logger is a logrus logger bound to a log file.
type Logger struct {
	*logrus.Logger
	Path string
	file *os.File
}

// New creates dir if needed and opens a new log file in it. Entries go to the
// file and to stderr.
func New(dir string, level string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, time.Now().UTC().Format(fileTimeFormat)+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	logger.SetLevel(ParseLevel(level))

	return &Logger{Logger: logger, Path: path, file: file}, nil
}

// Named returns an entry tagged with the component name.
func (l *Logger) Named(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	l.SetOutput(os.Stderr)
	return l.file.Close()
}

// ParseLevel maps debug, warn and error to their levels; anything else is info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
