package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config level name onto a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SetLevel applies a level name to lvl. debug forces slog.LevelDebug.
func SetLevel(lvl *slog.LevelVar, level string, debug bool) {
	if debug {
		lvl.Set(slog.LevelDebug)
		return
	}
	lvl.Set(ParseLevel(level))
}

func NewLogger(lvl *slog.LevelVar) *slog.Logger {
	return NewLoggerTo(os.Stdout, lvl)
}

func NewLoggerTo(w io.Writer, lvl *slog.LevelVar) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h).With("service", "rockwatch")
}
