package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	gormlogger "gorm.io/gorm/logger"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a tint backed logger writing to w, or stdout when w is nil.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.RFC3339,
		NoColor:    w != os.Stdout && w != os.Stderr,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.TimeValue(a.Value.Time().UTC())
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// Discard is a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type gormWriter struct {
	log *slog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// GormLogger routes GORM's SQL logging through log. Slow queries are reported
// above 200ms; record-not-found errors are not logged.
func GormLogger(log *slog.Logger, level string) gormlogger.Interface {
	lvl := gormlogger.Warn
	switch ParseLevel(level) {
	case slog.LevelDebug:
		lvl = gormlogger.Info
	case slog.LevelError:
		lvl = gormlogger.Error
	}
	return gormlogger.New(gormWriter{log: log.With("component", "gorm")}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
