package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// ANSI color codes
const (
	ansiReset   = "\033[0m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiGray    = "\033[90m"
)

// ConsoleHandler renders one human-oriented line per record:
//
//	15:04:05.000 [INFO ] [executor] pipeline execution failed run_id="..." error="..."
//
// The component attribute is lifted into the bracketed prefix. Colors are
// only emitted when enabled.
type ConsoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	color     bool
	component string
	attrs     []slog.Attr
	group     string
}

// NewConsoleHandler writes to w. color forces ANSI output on or off; use
// IsTerminal to decide.
func NewConsoleHandler(w io.Writer, level slog.Leveler, color bool) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{mu: &sync.Mutex{}, w: w, level: level, color: color}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	if runtime.GOOS == "windows" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(h.paint(ansiGray, r.Time.Format("15:04:05.000")))
		b.WriteByte(' ')
	}
	b.WriteString(h.levelTag(r.Level))
	b.WriteByte(' ')

	component := h.component
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" && h.group == "" {
			component = a.Value.String()
			return true
		}
		attrs = append(attrs, h.qualify(a))
		return true
	})
	if component != "" {
		b.WriteString(h.paint(ansiCyan, "["+component+"]"))
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)

	for _, a := range attrs {
		a = maskAttr(nil, a)
		b.WriteByte(' ')
		b.WriteString(h.paint(ansiCyan, a.Key))
		b.WriteByte('=')
		b.WriteString(h.value(a.Key, a.Value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if a.Key == "component" && h.group == "" {
			nh.component = a.Value.String()
			continue
		}
		nh.attrs = append(nh.attrs, h.qualify(a))
	}
	return &nh
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if h.group != "" {
		nh.group = h.group + "." + name
	} else {
		nh.group = name
	}
	return &nh
}

func (h *ConsoleHandler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}

func (h *ConsoleHandler) levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return h.paint(ansiRed, "[ERROR]")
	case l >= slog.LevelWarn:
		return h.paint(ansiYellow, "[WARN ]")
	case l >= slog.LevelInfo:
		return h.paint(ansiGreen, "[INFO ]")
	default:
		return h.paint(ansiGray, "[DEBUG]")
	}
}

func (h *ConsoleHandler) value(key string, v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		switch {
		case key == "error":
			return h.paint(ansiRed, fmt.Sprintf("%q", s))
		case key == "state" && s == "completed":
			return h.paint(ansiGreen, s)
		case key == "state" && s == "failed":
			return h.paint(ansiRed, s)
		}
		return fmt.Sprintf("%q", s)
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return h.paint(ansiMagenta, v.String())
	case slog.KindBool:
		if v.Bool() {
			return h.paint(ansiGreen, "true")
		}
		return h.paint(ansiRed, "false")
	case slog.KindDuration:
		return h.paint(ansiYellow, v.Duration().String())
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return h.paint(ansiRed, fmt.Sprintf("%q", err.Error()))
		}
	}
	return v.String()
}

func (h *ConsoleHandler) paint(code, s string) string {
	if !h.color {
		return s
	}
	return code + s + ansiReset
}
