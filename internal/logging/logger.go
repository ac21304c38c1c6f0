// Package logging wires zerolog the way the rest of the fetchd stack
// expects: a console writer on stderr, one global level, and
// component-scoped child loggers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Init(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// SetOutput redirects the global logger to w, for --log-file.
func SetOutput(w io.Writer) {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
