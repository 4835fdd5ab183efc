// Package logger provides construction of the application-wide zerolog logger.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level  string // trace, debug, info, warn, error
	Pretty bool   // Human-readable console output instead of JSON
}

// New creates a configured zerolog.Logger.
// Unknown level strings fall back to info.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Pretty {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		log = zerolog.New(output)
	} else {
		log = zerolog.New(os.Stderr)
	}

	return log.Level(level).With().Timestamp().Logger()
}
