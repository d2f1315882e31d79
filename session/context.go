package session

import (
	"context"

	"github.com/google/uuid"
)

type sessionIDContextKey struct{}

// WithID binds a session ID to ctx. The Manager's session operations act on
// the session bound here.
func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey{}, sessionID)
}

// IDFromContext returns the bound session ID, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDContextKey{}).(string)
	return id, ok && id != ""
}

// NewID returns a fresh random session ID.
func NewID() string {
	return uuid.NewString()
}
