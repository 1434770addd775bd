// Package trace provides request tracing context values.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// Context contains request tracing information.
type Context struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// With adds the trace Context to ctx.
func With(ctx context.Context, t *Context) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// Get returns the trace Context from ctx, or nil.
func Get(ctx context.Context) *Context {
	if v, ok := ctx.Value(traceKey{}).(*Context); ok {
		return v
	}
	return nil
}

// RequestID returns the request id from ctx or empty string.
func RequestID(ctx context.Context) string {
	if t := Get(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// New creates a trace Context with generated ids.
func New() *Context {
	return &Context{
		TraceID:   uuid.New().String(),
		RequestID: uuid.New().String(),
	}
}
