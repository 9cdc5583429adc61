package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/okeefe/recite-api/internal/config"
)

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger writing to
// stdout with the appropriate log level and sets it as the default logger
// for the application, so the slog package functions (slog.Info, slog.Error,
// etc.) use it as well.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	level, ok := parseLevel(cfg.LogLevel)
	if !ok {
		// If the log level is invalid, use info level and log a warning
		// through a temporary text handler on stderr.
		level = slog.LevelInfo

		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	log := slog.New(handler)
	slog.SetDefault(log)

	return log, nil
}

// parseLevel maps a case-insensitive level name to its slog level. The
// second return value reports whether the name was recognized.
func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
