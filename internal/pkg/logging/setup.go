package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/apovetkin/fonhockey/internal/pkg/config"
)

// SetupLogger configures the global logger. Every binary calls this
// first with its own service name so runs interleaved in one log
// stream stay attributable.
func SetupLogger(cfg *config.LoggingConfig, serviceName string) *slog.Logger {
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	logger := slog.New(textHandler).With("service", serviceName)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
