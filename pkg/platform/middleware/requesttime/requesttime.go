// Package requesttime fixes "now" once per request so every timestamp written
// while serving it agrees.
package requesttime

import (
	"net/http"
	"time"

	"passport-status/pkg/requestcontext"
)

// Middleware stores the UTC arrival time of the request in its context.
func Middleware(next http.Handler) http.Handler {
	return middleware(time.Now)(next)
}

func middleware(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
