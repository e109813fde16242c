package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. Only warnings and errors are
// emitted unless verbose is set.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// VerboseFromEnv reports whether INFRACHECK_DEBUG asks for debug output.
func VerboseFromEnv() bool {
	v := os.Getenv("INFRACHECK_DEBUG")
	return v == "1" || strings.EqualFold(v, "true")
}
