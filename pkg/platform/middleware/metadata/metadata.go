// Package metadata copies request identity out of HTTP headers into the
// request context.
package metadata

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"passport-status/pkg/requestcontext"
)

const (
	RequestIDHeader = "X-Request-Id"
	// ActorHeader names the user or system on whose behalf an upstream caller
	// acts. It is trusted as given.
	ActorHeader = "X-Actor"
)

const maxHeaderValue = 128

// RequestID takes the caller's request id when it is printable ASCII of
// reasonable length and generates one otherwise. The id is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if !printable(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Actor records the acting user from ActorHeader. Requests without one leave
// the context untouched so services apply their default.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if !printable(actor) {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(r.Context(), actor)))
	})
}

// ClientIP returns the originating address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first entry is the original client.
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}

func printable(s string) bool {
	if s == "" || len(s) > maxHeaderValue {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
