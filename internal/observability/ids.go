package observability

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	SessionIDKey contextKey = "session_id"
)

func NewID() string {
	return uuid.New().String()
}

// ContextWithRequestID tags an HTTP request on the metrics endpoint.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// ContextWithSessionID tags every engine call made by one interactive
// session so its log lines can be grouped.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

func SessionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, SessionIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	id, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return id
}
