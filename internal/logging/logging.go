// Package logging builds the zerolog loggers shared by the services.
//
// The root logger writes human-readable lines to stderr. Services get a child
// logger tagged with a component name so lines can be grepped per subsystem:
//
//	log := logging.New("debug", os.Stderr)
//	syncLog := logging.For(log, "sync")
//	syncLog.Info().Int("fetched", 12).Msg("sync completed")
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger at the given level. Unknown levels fall back to info.
func New(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// For returns a child logger tagged with a component name.
func For(parent zerolog.Logger, component string) zerolog.Logger {
	return parent.With().Str("component", component).Logger()
}
