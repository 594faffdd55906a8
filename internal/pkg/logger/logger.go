// Package logger holds the process-wide zerolog logger and the Rollbar reporter.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger zerolog.Logger

// LogLevel is a level name as written in configs/config.yaml
type LogLevel string

// Config represents logger configuration
type Config struct {
	Level  LogLevel
	Pretty bool      // Console output instead of JSON lines
	Output io.Writer // Defaults to os.Stdout
}

// Configure replaces the default logger and zerolog's global logger.
// Unknown or empty levels fall back to info.
func Configure(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(string(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	defaultLogger = zerolog.New(out).With().Timestamp().Str("service", "schoolrecords").Logger()
	log.Logger = defaultLogger
}

func Debug() *zerolog.Event { return defaultLogger.Debug() }
func Info() *zerolog.Event  { return defaultLogger.Info() }
func Warn() *zerolog.Event  { return defaultLogger.Warn() }
func Error() *zerolog.Event { return defaultLogger.Error() }

// Nop silences the default logger. Used by tests.
func Nop() {
	defaultLogger = zerolog.Nop()
	log.Logger = defaultLogger
}

func init() {
	Configure(Config{Level: "info", Pretty: true})
}
