package metadata

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport-status/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.RequestID(r.Context())
	}))

	t.Run("keeps a valid caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", got)
		assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
	})

	tests := map[string]string{
		"missing":   "",
		"too long":  strings.Repeat("a", 200),
		"non-ascii": "réq",
		"control":   "a\tb",
	}
	for name, header := range tests {
		t.Run("generates when "+name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set(RequestIDHeader, header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			_, err := uuid.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, got, rr.Header().Get(RequestIDHeader))
		})
	}
}

func TestActor(t *testing.T) {
	var (
		actor string
		set   bool
	)
	h := Actor(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		actor = requestcontext.Actor(r.Context())
		set = actor != ""
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, " clerk-42 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "clerk-42", actor)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, set)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.3 "}, "10.0.0.2:1234", "198.51.100.3"},
		{"remote addr", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"ipv6 remote addr", nil, "[::1]:8080", "[::1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
