package pipehttp

import (
	"io"

	"github.com/DaianCosta/pipehttp/internal/common"
)

type (
	Logger   = common.Logger
	LogLevel = common.LogLevel
)

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

// NewLogger creates a text logger writing to stdout.
func NewLogger(level LogLevel) *Logger { return common.NewLogger(level) }

// NewJSONLogger creates a JSON logger writing to stdout.
func NewJSONLogger(level LogLevel) *Logger { return common.NewJSONLogger(level) }

// NewLoggerWithWriter creates a text or JSON logger writing to w.
func NewLoggerWithWriter(w io.Writer, level LogLevel, jsonFormat bool) *Logger {
	return common.NewLoggerWithWriter(w, level, jsonFormat)
}

// NewConsoleLogger creates a line-oriented logger for humans, colored on a terminal.
func NewConsoleLogger(w io.Writer, level LogLevel) *Logger { return common.NewConsoleLogger(w, level) }

// SetDefaultLogger replaces the process-wide logger. nil is ignored.
func SetDefaultLogger(l *Logger) { common.SetDefaultLogger(l) }

// GetLogger returns the process-wide logger.
func GetLogger() *Logger { return common.GetLogger() }

// ParseLogLevel maps "error", "warn", "info" or "debug" onto a LogLevel.
// Empty means info.
func ParseLogLevel(s string) (LogLevel, bool) { return common.ParseLogLevel(s) }

// EnableMasking turns masking of sensitive values in logs on or off.
func EnableMasking(enabled bool) { common.EnableMasking(enabled) }

// MaskSensitiveData masks credentials found in s.
func MaskSensitiveData(s string) string { return common.MaskSensitiveData(s) }
