package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// logger discards until SetLogger installs the configured one; stdout belongs
// to the prompt.
var logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func Logger() *slog.Logger {
	return logger
}

func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// New builds a JSON logger writing to w at the named level.
func New(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
}
