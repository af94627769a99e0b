package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Wrapf(ErrUnknownLevel, "%q", level)
	}
}

// New returns a logger writing to w, colored when w is a terminal.
func New(level slog.Level, w io.Writer) *slog.Logger {
	noColor := true
	if file, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(file.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		NoColor:    noColor,
		AddSource:  level <= slog.LevelDebug,
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// Setup makes the logger returned by New the default one.
func Setup(level slog.Level, w io.Writer) *slog.Logger {
	logger := New(level, w)
	slog.SetDefault(logger)

	return logger
}
