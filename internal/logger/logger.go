// Package logger configures structured logging: JSON for production,
// a colored single-line format everywhere else.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	formatJSON   = "json"
	formatPretty = "pretty"
)

// Logger wraps slog.Logger with chaining helpers.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Writer      io.Writer
	Format      string
	Environment string
	Level       slog.Level
}

// New creates a logger. When Format is empty it is derived from the
// environment: production logs JSON, everything else logs pretty.
func New(cfg Config) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Format == "" {
		if cfg.Environment == "production" {
			cfg.Format = formatJSON
		} else {
			cfg.Format = formatPretty
		}
	}

	var handler slog.Handler
	if cfg.Format == formatJSON {
		handler = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{Level: cfg.Level})
	} else {
		handler = &prettyHandler{writer: cfg.Writer, level: cfg.Level}
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel converts a string to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError adds an error attribute to the logger.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With(slog.String("error", err.Error()))}
}

// WithField adds a single field to the logger.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Logger: l.With(slog.Any(key, value))}
}

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[37m"
)

// prettyHandler writes "HH:MM:SS LVL message key=value ..." lines.
// Group names are folded into attribute keys ("group.key").
type prettyHandler struct {
	writer io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.Grow(256)

	fmt.Fprintf(&b, "%s%s%s ", ansiDim, r.Time.Format("15:04:05"), ansiReset)

	label, color := levelLabel(r.Level)
	fmt.Fprintf(&b, "%s%s%s ", color, label, ansiReset)

	fmt.Fprintf(&b, "%s%s%s", ansiBold, r.Message, ansiReset)

	wrote := false
	writeAttr := func(prefix string, a slog.Attr) {
		if !wrote {
			b.WriteByte(' ')
			b.WriteString(ansiCyan)
			wrote = true
		} else {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%s=%s", prefix, a.Key, renderValue(a.Value))
	}
	for _, a := range h.attrs {
		writeAttr("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(h.prefix, a)
		return true
	})
	if wrote {
		b.WriteString(ansiReset)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func levelLabel(level slog.Level) (label, color string) {
	switch {
	case level >= slog.LevelError:
		return "ERR", ansiRed
	case level >= slog.LevelWarn:
		return "WRN", ansiYellow
	case level >= slog.LevelInfo:
		return "INF", ansiGreen
	default:
		return "DBG", ansiGray
	}
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.String()
	}
}
