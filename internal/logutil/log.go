// Package logutil plumbs a zerolog logger through context so request
// handlers and background loops share the same configured output.
package logutil

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte
)

var (
	loggerKey = key(1)
)

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// WithComponent tags the context logger and stores it back, handy at
// the boundary between the CLI and long-lived loops.
func WithComponent(ctx context.Context, name string) context.Context {
	logger := GetOrDefault(ctx).With().Str("component", name).Logger()
	return WithLogger(ctx, logger)
}
