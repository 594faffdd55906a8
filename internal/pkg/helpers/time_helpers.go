package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses s as a Go duration. Empty or malformed input yields def;
// malformed input is logged through the global logger since it can run before
// the application logger is configured.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		log.Warn().Err(err).Str("value", s).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return d
}
