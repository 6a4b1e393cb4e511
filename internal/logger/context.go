package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	iterationKey contextKey = "iteration_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithIteration tags the context and its logger with an iteration id.
func WithIteration(ctx context.Context, logger *zap.Logger, iterationID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, iterationKey, iterationID)
	enriched := logger.With(zap.String("iteration", iterationID))
	return WithContext(ctx, enriched), enriched
}

// IterationID retrieves the iteration id from context
func IterationID(ctx context.Context) string {
	if id, ok := ctx.Value(iterationKey).(string); ok {
		return id
	}
	return ""
}
