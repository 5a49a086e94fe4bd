package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger writing JSON to stderr.
func New() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// NewConsole returns a logger with human-readable output for interactive runs.
func NewConsole() zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).With().Timestamp().Logger()
}
