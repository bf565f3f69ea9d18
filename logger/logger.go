package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
)

type Fields map[string]any

// Logger writes one JSON object per line through log/slog. Every entry
// carries the service and hostname; the message key is renamed to action.
type Logger struct {
	service string
	slog    *slog.Logger
}

func New(service string) *Logger {
	return newLogger(service, os.Stdout)
}

// WithOutput returns a copy of l writing to w.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	return newLogger(l.service, w)
}

// Discard is handy in tests.
func Discard(service string) *Logger { return newLogger(service, io.Discard) }

func newLogger(service string, w io.Writer) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: renameKeys,
	})
	return &Logger{
		service: service,
		slog:    slog.New(h).With("service", service, "hostname", hostname()),
	}
}

func renameKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.MessageKey:
		a.Key = "action"
	case slog.TimeKey:
		a.Key = "timestamp"
		a.Value = slog.TimeValue(a.Value.Time().UTC())
	}
	return a
}

func (l *Logger) log(level slog.Level, action string, fields Fields, err error) {
	if l == nil {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields)+1)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.slog.LogAttrs(context.Background(), level, action, attrs...)
}

func (l *Logger) Info(action string, fields Fields)             { l.log(slog.LevelInfo, action, fields, nil) }
func (l *Logger) Debug(action string, fields Fields)            { l.log(slog.LevelDebug, action, fields, nil) }
func (l *Logger) Warn(action string, err error, fields Fields)  { l.log(slog.LevelWarn, action, fields, err) }
func (l *Logger) Error(action string, err error, fields Fields) { l.log(slog.LevelError, action, fields, err) }

var (
	hostOnce sync.Once
	host     string
)

func hostname() string {
	hostOnce.Do(func() { host, _ = os.Hostname() })
	return host
}
