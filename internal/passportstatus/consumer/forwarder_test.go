package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/models"
)

type produced struct {
	key, value []byte
}

type fakeProducer struct {
	mu   sync.Mutex
	sent []produced
	err  error
}

func (p *fakeProducer) Produce(_ context.Context, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, produced{key: key, value: value})
	return nil
}

func TestNewForwarderRequiresProducer(t *testing.T) {
	_, err := NewForwarder(nil, nil, nil)
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	t.Run("keyed by record id", func(t *testing.T) {
		key, value, err := Encode(events.StatusRecordUpdated{
			Meta:   testMeta(),
			Before: &models.StatusRecord{ID: "r1", LastName: "Doe"},
			After:  &models.StatusRecord{ID: "r1", LastName: "Smith"},
		})
		require.NoError(t, err)
		assert.Equal(t, "r1", string(key))

		var msg Message
		require.NoError(t, json.Unmarshal(value, &msg))
		assert.Equal(t, string(events.KindUpdated), msg.Kind)
		assert.Equal(t, "evt-1", msg.Meta.ID)
		assert.Equal(t, []string{"r1"}, msg.RecordIDs)
		assert.Contains(t, string(msg.Payload), `"last_name":"Smith"`)
	})

	t.Run("falls back to the event id", func(t *testing.T) {
		key, _, err := Encode(events.SearchPerformed{Meta: testMeta(), QueryKind: "email", Result: models.MatchMiss})
		require.NoError(t, err)
		assert.Equal(t, "evt-1", string(key))
	})
}

func TestForwarderHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("produces the encoded event", func(t *testing.T) {
		producer := &fakeProducer{}
		f, err := NewForwarder(producer, nil, nil)
		require.NoError(t, err)

		require.NoError(t, f.Handle(ctx, events.NotificationSent{Meta: testMeta(), RecordID: "r9"}))
		require.Len(t, producer.sent, 1)
		assert.Equal(t, "r9", string(producer.sent[0].key))
	})

	t.Run("produce failure is counted and swallowed", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		f, err := NewForwarder(&fakeProducer{err: errors.New("broker down")}, nil, reg)
		require.NoError(t, err)

		require.NoError(t, f.Handle(ctx, events.NotificationSent{Meta: testMeta(), RecordID: "r9"}))
		assert.Equal(t, 1.0, promtest.ToFloat64(f.failures))
	})
}
