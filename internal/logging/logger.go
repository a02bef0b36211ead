package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/saaslens/internal/config"
)

// NewLogger creates the process logger. Every line carries the service name
// when one is configured.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return ctx.Logger().Level(level)
}
