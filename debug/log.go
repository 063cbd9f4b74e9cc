// Package debug is the process-wide category logger. It is silent until
// Enable is called, so the terminal UI is never written over.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	logger   = newLogger()
	mu       sync.Mutex
	file     *os.File
	counters = make(map[string]int)
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return l
}

// Enable starts logging to path at the given level ("debug", "info", ...).
func Enable(path, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	file = f
	logger.SetOutput(f)
	logger.SetLevel(lvl)
	logger.WithField("category", "debug").Info("=== Debug logging started ===")
	return nil
}

// SetOutput redirects the log, mostly for tests.
func SetOutput(w io.Writer, level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
	logger.SetLevel(level)
}

// Disable stops logging and closes the log file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(io.Discard)
	if file != nil {
		file.Close()
		file = nil
	}
}

// Log writes a debug message under category.
func Log(category, format string, args ...any) {
	logger.WithField("category", category).Debugf(format, args...)
}

// Warn writes a warning under category.
func Warn(category, format string, args ...any) {
	logger.WithField("category", category).Warnf(format, args...)
}

// LogEvery logs only every n-th call with the same category and format.
// Use it for per-frame events.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, "%s (every %d, count=%d)", fmt.Sprintf(format, args...), n, count)
	}
}
