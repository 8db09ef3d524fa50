package testutil

import (
	"context"
	"net/http"
	"time"

	id "landrec/pkg/domain"
	"landrec/pkg/requestcontext"
)

// WithActor puts the acting office user on the request, as the actor
// middleware would after reading the gateway headers.
func WithActor(req *http.Request, userID id.UserID, roles ...string) *http.Request {
	ctx := requestcontext.WithUser(req.Context(), userID, roles)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
