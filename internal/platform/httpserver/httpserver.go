// Package httpserver builds the API's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

type Option func(*http.Server)

// WithHandlerTimeout sizes the write deadline to outlast a handler running for d,
// so a timed-out handler can still write its error response.
func WithHandlerTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d + 5*time.Second
		}
	}
}

// New builds a server with conservative read, write and idle timeouts.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
