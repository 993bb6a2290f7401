// Package reqctx carries per-request values across package boundaries.
package reqctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	clientKey
)

// WithRequestID returns ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithClient returns ctx carrying the resolved client address.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey, client)
}

// Client returns the address stored by WithClient, or "".
func Client(ctx context.Context) string {
	c, _ := ctx.Value(clientKey).(string)
	return c
}
