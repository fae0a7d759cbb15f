// Package logging adapts logrus to the printf-style Logger used by the
// converter and the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry so fields attached with With travel along.
type Logger struct {
	entry *logrus.Entry
}

// Options configures New.
type Options struct {
	// Level is "debug", "info", "warn" or "error". Default: "info".
	Level string

	// File, when set, receives the log in addition to stderr.
	File string

	// JSON selects the JSON formatter instead of text.
	JSON bool
}

// New builds a logger. The returned closer releases the log file, if any.
func New(opts Options) (*Logger, io.Closer, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level := strings.ToLower(opts.Level)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	l.SetLevel(lvl)

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.SetOutput(io.MultiWriter(os.Stderr, f))
		closer = f
	}
	return &Logger{entry: logrus.NewEntry(l)}, closer, nil
}

// FromLogrus wraps an existing logrus logger.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{entry: logrus.NewEntry(l)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return FromLogrus(l)
}

// With returns a logger carrying an extra field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger carrying extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.entry.Debugf(msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.entry.Infof(msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.entry.Warnf(msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.entry.Errorf(msg, args...) }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
