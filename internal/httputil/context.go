package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const actorKey contextKey = "actor"

// WithActor adds the authenticated actor identity to the request context
func WithActor(r *http.Request, actor string) *http.Request {
	ctx := context.WithValue(r.Context(), actorKey, actor)
	return r.WithContext(ctx)
}

// GetActor retrieves the actor identity from context, returns empty string if not found
func GetActor(r *http.Request) string {
	actor, _ := r.Context().Value(actorKey).(string)
	return actor
}
