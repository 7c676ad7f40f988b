package middleware

import (
	"context"
)

// userIDKey is the key used to store the authenticated subject in the request context.
const userIDKey = contextKey("userID")

// WithUserID returns a copy of ctx carrying the authenticated subject.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromCtx returns the authenticated subject, or "" when the request was not
// authenticated (auth disabled, background jobs).
func GetUserIDFromCtx(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
