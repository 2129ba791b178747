package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"passport-status/internal/platform/config"
)

func TestSetup(t *testing.T) {
	t.Run("no endpoint is a no-op", func(t *testing.T) {
		shutdown, err := Setup(context.Background(), config.TracingConfig{Enabled: true}, "test-service")
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	})

	t.Run("explicitly disabled is a no-op", func(t *testing.T) {
		cfg := config.TracingConfig{Enabled: false, Endpoint: "http://localhost:4318"}
		shutdown, err := Setup(context.Background(), cfg, "test-service")
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	})

	t.Run("endpoint set installs a provider that shuts down cleanly", func(t *testing.T) {
		// Non-routable address; nothing is exported before shutdown.
		cfg := config.TracingConfig{Enabled: true, Endpoint: "http://192.0.2.1:4318"}
		shutdown, err := Setup(context.Background(), cfg, "test-service")
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	})

	t.Run("no-op shutdown ignores a cancelled context", func(t *testing.T) {
		shutdown, err := Setup(context.Background(), config.TracingConfig{}, "test-service")
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, shutdown(ctx))
	})
}
