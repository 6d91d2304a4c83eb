// Package obslog wires structured logging the way aristath-sentinel's
// pkg/logger does: build once per run, thread the logger explicitly instead
// of relying on package-level state.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the logger's output format and level.
type Config struct {
	Level  zerolog.Level
	Pretty bool
	Output io.Writer
}

func DefaultConfig() Config {
	return Config{Level: zerolog.InfoLevel, Pretty: true, Output: os.Stderr}
}

// New builds a zerolog.Logger for one run.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(cfg.Level).With().Timestamp().Logger()
}
