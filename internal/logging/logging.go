// Package logging wires the process-wide zerolog logger, mirroring the
// console-writer-in-dev/JSON-in-prod split the teacher's cmd/main.go
// establishes directly in main().
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// New builds the root logger for the process. env selects the writer:
// anything other than "production"/"prod" gets the human-readable
// console writer; production gets line-delimited JSON to w.
func New(w io.Writer, env string, debug bool) zerolog.Logger {
	var out io.Writer = w
	switch env {
	case "production", "prod":
		// leave out as-is: raw JSON lines
	default:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: zerolog.TimeFormatUnix}
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(out).With().Timestamp().Logger()
}

// Default returns a logger writing to stdout in development mode, for
// package-level fallbacks before Config has loaded.
func Default() zerolog.Logger {
	return New(os.Stdout, "development", false)
}
