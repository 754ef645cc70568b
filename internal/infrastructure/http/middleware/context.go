package middleware

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// RequestContext carries the authenticated actor of a request. UserID is
// nil for anonymous callers.
type RequestContext struct {
	UserID *uint
}

// WithRequestContext stores rc in ctx
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the request context, or an anonymous one
func FromContext(ctx context.Context) RequestContext {
	rc, _ := ctx.Value(ctxKey{}).(RequestContext)
	return rc
}

// Actor returns the signed-in user id
func Actor(r *http.Request) (uint, bool) {
	rc := FromContext(r.Context())
	if rc.UserID == nil {
		return 0, false
	}
	return *rc.UserID, true
}

// ViewerID returns the signed-in user id, or zero for anonymous requests
func ViewerID(r *http.Request) uint {
	id, _ := Actor(r)
	return id
}
