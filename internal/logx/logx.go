// Package logx builds the scoped leveled loggers used across the bridge.
package logx

import (
	"io"
	"strings"

	"github.com/pion/logging"
)

// Logger is the leveled logger handed to every component.
type Logger = logging.LeveledLogger

// NewFactory returns a logger factory writing to w at the named level
// ("trace", "debug", "info", "warn", "error", "off"). PION_LOG_* scope
// overrides from the environment still apply.
func NewFactory(level string, w io.Writer) logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = ParseLevel(level)
	if w != nil {
		f.Writer = w
	}
	return f
}

// ParseLevel maps a level name to a pion log level; unknown names mean info.
func ParseLevel(s string) logging.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logging.LogLevelTrace
	case "debug":
		return logging.LogLevelDebug
	case "warn", "warning":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	case "off", "disabled", "none":
		return logging.LogLevelDisabled
	default:
		return logging.LogLevelInfo
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() Logger {
	return logging.NewDefaultLeveledLoggerForScope("discard", logging.LogLevelDisabled, io.Discard)
}
