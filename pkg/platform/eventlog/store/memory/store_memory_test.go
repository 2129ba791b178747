package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport-status/pkg/platform/eventlog"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := []string{"r1"}
	require.NoError(t, s.Append(ctx, eventlog.Entry{ID: "e1", Kind: "created", OccurredAt: base, RecordIDs: ids}))
	require.NoError(t, s.Append(ctx, eventlog.Entry{ID: "e2", Kind: "search", OccurredAt: base.Add(time.Second), RecordIDs: []string{"r1", "r2"}}))
	require.NoError(t, s.Append(ctx, eventlog.Entry{ID: "e3", Kind: "search", OccurredAt: base.Add(2 * time.Second)}))
	ids[0] = "mutated"

	t.Run("list by record", func(t *testing.T) {
		got, err := s.ListByRecord(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "e1", got[0].ID)
		assert.Equal(t, "e2", got[1].ID)

		got, err = s.ListByRecord(ctx, "r2")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("list recent", func(t *testing.T) {
		got, err := s.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "e3", got[0].ID)
		assert.Equal(t, "e2", got[1].ID)

		got, err = s.ListRecent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
