package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithField adds a single string field to the logger in the context.
func WithField(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithRun tags every log line of an import run with its ID.
func WithRun(ctx context.Context, runID string) context.Context {
	return WithField(ctx, "run_id", runID)
}

// WithStyle adds the PIM style code being processed.
func WithStyle(ctx context.Context, styleID string) context.Context {
	return WithField(ctx, "style_id", styleID)
}

// WithProduct adds the target catalog product ID.
func WithProduct(ctx context.Context, productID string) context.Context {
	return WithField(ctx, "product_id", productID)
}

// WithStage adds the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return WithField(ctx, "stage", stage)
}
