package tasks

import (
	"context"

	"github.com/google/uuid"
)

type buildIDKey struct{}

// WithBuildID returns a context carrying id.
func WithBuildID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, buildIDKey{}, id)
}

// BuildID returns the build ID carried by ctx, or "".
func BuildID(ctx context.Context) string {
	id, _ := ctx.Value(buildIDKey{}).(string)
	return id
}

// NewBuildID returns a fresh random build ID.
func NewBuildID() string {
	return uuid.NewString()
}
