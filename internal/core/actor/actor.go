// Package actor provides request-scoped identity extraction.
// Audit attribution is consumed from an external auth context; this package
// only carries the already-authenticated actor through call chains.
package actor

import (
	"context"
)

// Actor identifies the user responsible for a change.
type Actor struct {
	UserID string
	Email  string
}

type actorKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns Actor from context, or nil.
func FromContext(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// UserID returns the actor user id from context or empty string.
func UserID(ctx context.Context) string {
	if a := FromContext(ctx); a != nil {
		return a.UserID
	}
	return ""
}
