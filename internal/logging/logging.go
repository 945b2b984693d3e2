// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/milkchain-backend/internal/config"
)

// Setup sets the global level and output format. Console output is used for
// development or when explicitly asked for; JSON otherwise.
func Setup(cfg config.LoggingConfig, environment string) {
	Configure(os.Stderr, cfg, environment)
}

// Configure is Setup with an explicit writer.
func Configure(w io.Writer, cfg config.LoggingConfig, environment string) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if strings.EqualFold(cfg.Format, "console") || environment == "development" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
