package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger writes to stderr so stdout stays free for the tabular listings.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil { lvl = zerolog.InfoLevel }
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}
