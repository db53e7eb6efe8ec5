package httpx

import (
	"context"
)

// requestIDKey is an unexported context key type to avoid collisions across packages.
type requestIDKey struct{}

// SetRequestIDInContext returns a child context carrying id.
// If id is empty, the original ctx is returned unchanged.
func SetRequestIDInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID and a boolean indicating presence.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
