package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func NewLogger(cfg *Config) (*zerolog.Logger, error) {
	return NewLoggerTo(cfg, os.Stdout)
}

// NewLoggerTo is NewLogger with an explicit sink.
// The CLI logs to stderr so that command output on stdout stays parseable.
func NewLoggerTo(cfg *Config, out io.Writer) (*zerolog.Logger, error) {
	if cfg.Level == "" {
		return nil, fmt.Errorf("parse log level: empty")
	}
	level, err := zerolog.ParseLevel(string(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	if cfg.Format == LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}

	l := ctx.Logger()
	return &l, nil
}
