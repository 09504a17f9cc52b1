package core

import (
	"context"
)

type traceKey struct{}

// WithTraceID tags ctx with the trace id of the running entry point
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext trace id set by WithTraceID, empty if none
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}

	return ""
}
