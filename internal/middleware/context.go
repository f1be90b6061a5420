package middleware

import (
	"blogicum/internal/service"
	"context"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const viewerContextKey = contextKey("viewer")

// ViewerFrom retrieves the viewer from the request context.
// Requests that did not pass through LoadViewer are anonymous.
func ViewerFrom(ctx context.Context) service.Viewer {
	if v, ok := ctx.Value(viewerContextKey).(service.Viewer); ok {
		return v
	}
	return service.Anonymous()
}

// SetViewer adds the viewer to the request context.
func SetViewer(ctx context.Context, v service.Viewer) context.Context {
	return context.WithValue(ctx, viewerContextKey, v)
}
