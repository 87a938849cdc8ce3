package logging

import (
	"context"

	"go.uber.org/zap"
)

type requestCtxKey struct{}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		return []zap.Field{zap.String("request.id", requestID)}
	}
	return nil
}

// WithRequestID adds a request ID to the context. Empty IDs are ignored.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}
