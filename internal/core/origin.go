package core

import "context"

type contextKey string

const ctxKeyOrigin contextKey = "publish_origin"

// ContextWithOrigin records who asked for an operation, such as a client IP
// or "cli". Publish batches store it.
func ContextWithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, ctxKeyOrigin, origin)
}

// OriginFromContext returns the recorded origin, or "" when none was set.
func OriginFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOrigin).(string); ok {
		return v
	}
	return ""
}
