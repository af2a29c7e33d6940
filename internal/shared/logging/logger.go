package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config describes the process logger.
type Config struct {
	// Directory receives one log file per day. Empty disables file output.
	Directory string
	Level     string
	// Format is json or text; anything else falls back to text.
	Format    string
	AddSource bool
	// Service and Env are attached to every record when set.
	Service string
	Env     string
}

var levels = map[string]slog.Level{
	"trace":   slog.LevelDebug - 2,
	"debug":   slog.LevelDebug,
	"dbg":     slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"err":     slog.LevelError,
}

// ParseLevel maps a textual level onto slog, defaulting to info.
func ParseLevel(raw string) slog.Level {
	if level, ok := levels[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return level
	}
	return slog.LevelInfo
}

// New builds a logger writing to w, or stdout when w is nil. Timestamps are
// written in UTC.
func New(w io.Writer, cfg Config) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.TimeValue(a.Value.Time().UTC().Truncate(time.Millisecond))
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	var attrs []slog.Attr
	if cfg.Service != "" {
		attrs = append(attrs, slog.String("service", cfg.Service))
	}
	if cfg.Env != "" {
		attrs = append(attrs, slog.String("env", cfg.Env))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}
	return slog.New(handler)
}
