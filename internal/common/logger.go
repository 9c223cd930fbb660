package common

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Logger is the structured logger shared by the engine, the server and the CLI.
type Logger struct {
	*slog.Logger
	level LogLevel
}

// NewLogger creates a text logger writing to stdout.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stdout, level, false)
}

// NewJSONLogger creates a JSON logger writing to stdout.
func NewJSONLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stdout, level, true)
}

// NewLoggerWithWriter creates a logger writing to w. Attribute values pass
// through the global masker before they are rendered.
func NewLoggerWithWriter(w io.Writer, level LogLevel, jsonFormat bool) *Logger {
	opts := &slog.HandlerOptions{
		Level:       level.ToSlogLevel(),
		ReplaceAttr: maskAttr,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
}

// NewConsoleLogger creates a logger using ConsoleHandler. Colors are on
// only when w is a terminal.
func NewConsoleLogger(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		Logger: slog.New(NewConsoleHandler(w, level.ToSlogLevel(), IsTerminal(w))),
		level:  level,
	}
}

func maskAttr(_ []string, a slog.Attr) slog.Attr {
	if !IsMaskingEnabled() {
		return a
	}
	switch a.Value.Kind() {
	case slog.KindString:
		masked := GetGlobalMasker().MaskValue(a.Key, a.Value.String())
		if s, ok := masked.(string); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, MaskSensitiveData(err.Error()))
		}
	}
	return a
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		level:  l.level,
	}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithRun returns a logger scoped to one execution.
func (l *Logger) WithRun(runID string) *Logger {
	return l.with("run_id", runID)
}

// WithPipeline returns a logger with pipeline context
func (l *Logger) WithPipeline(index int, name string) *Logger {
	if name == "" {
		return l.with("pipeline", index)
	}
	return l.with("pipeline", index, "pipeline_name", name)
}

// WithBackend returns a logger with HTTP request context
func (l *Logger) WithBackend(method, url string) *Logger {
	return l.with("method", method, "url", url)
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(storeType string) *Logger {
	return l.with("store", storeType)
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewLogger(LogLevelInfo))
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		return
	}
	defaultLogger.Store(logger)
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger.Load()
}

// LogError logs an error with context
func LogError(msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	GetLogger().Error(msg, args...)
}

// LogInfo logs informational message
func LogInfo(msg string, attrs ...any) {
	GetLogger().Info(msg, attrs...)
}

// LogDebug logs debug message
func LogDebug(msg string, attrs ...any) {
	GetLogger().Debug(msg, attrs...)
}

// LogWarn logs warning message
func LogWarn(msg string, attrs ...any) {
	GetLogger().Warn(msg, attrs...)
}

// ParseLogLevel maps a config string onto a LogLevel. Empty means info.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch s {
	case "error":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "info", "":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	default:
		return LogLevelInfo, false
	}
}
