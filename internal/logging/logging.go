// Package logging sends diagnostics to a log file. The TUIs own the terminal,
// so nothing here ever writes to stdout or stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/WJQSERVER-STUDIO/logger"
)

var (
	enabled atomic.Bool
	verbose atomic.Bool
)

// Init opens the log file at path, rotating once it grows past maxSizeMB.
// Until Init succeeds every log call is a no-op. Later calls only change the
// debug level.
func Init(path string, maxSizeMB int, debug bool) error {
	if path == "" {
		return nil
	}
	if enabled.Load() {
		verbose.Store(debug)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	if err := logger.Init(path, maxSizeMB); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	verbose.Store(debug)
	enabled.Store(true)
	return nil
}

func Debugf(format string, args ...any) {
	if enabled.Load() && verbose.Load() {
		logger.LogDebug(format, args...)
	}
}

func Infof(format string, args ...any) {
	if enabled.Load() {
		logger.LogInfo(format, args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled.Load() {
		logger.LogWarning(format, args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled.Load() {
		logger.LogError(format, args...)
	}
}
