// Package logging sets up the diagnostic log. The terminal belongs to the
// widget, so logs always go to a rotating file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/diogo/chatwidget/internal/config"
)

const defaultLogFile = "chatwidget.log"

const (
	maxLogSizeMB  = 5
	maxLogBackups = 3
	maxLogAgeDays = 14
)

// Init configures slog to write structured logs to a file and installs it as default.
// On failure a discarding logger is installed and the error returned.
func Init(cfg config.LogConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	logPath := strings.TrimSpace(cfg.File)
	if logPath == "" {
		logPath = defaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		logger := slog.New(newHandler(cfg.Format, io.Discard, opts))
		slog.SetDefault(logger)
		return logger, err
	}

	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}

	logger := slog.New(newHandler(cfg.Format, writer, opts))
	slog.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultLogPath() string {
	dir, err := config.GetConfigDir()
	if err != nil || strings.TrimSpace(dir) == "" {
		return filepath.Join(".chatwidget", "logs", defaultLogFile)
	}
	return filepath.Join(dir, "logs", defaultLogFile)
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
