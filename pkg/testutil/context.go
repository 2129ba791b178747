package testutil

import (
	"net/http"
	"time"

	"passport-status/pkg/requestcontext"
)

// WithActor sets the acting user on the request context, as the metadata
// middleware would.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithTime fixes the request-scoped "now".
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
