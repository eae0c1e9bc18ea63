package hiservice

import "context"

type contextKey int

const userIDKey contextKey = iota

// WithUserID returns a context that makes calls on behalf of the user specified,
// overriding the configured user identifier.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user identifier from the context, if any
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}
