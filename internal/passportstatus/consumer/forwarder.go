package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"passport-status/internal/passportstatus/events"
	"passport-status/pkg/platform/eventbus"
)

// Producer writes one keyed message to the outbound topic.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Message is the wire form of a forwarded event.
type Message struct {
	Kind      string          `json:"kind"`
	Meta      events.Meta     `json:"meta"`
	RecordIDs []string        `json:"record_ids"`
	Payload   json.RawMessage `json:"payload"`
}

// Forwarder publishes every event to an external topic. Delivery is best
// effort: failures are logged and counted and never retried.
type Forwarder struct {
	producer Producer
	logger   *slog.Logger
	failures prometheus.Counter
}

// NewForwarder registers its failure counter on reg when reg is non-nil.
func NewForwarder(producer Producer, logger *slog.Logger, reg prometheus.Registerer) (*Forwarder, error) {
	if producer == nil {
		return nil, fmt.Errorf("producer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := &Forwarder{producer: producer, logger: logger}
	if reg != nil {
		f.failures = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "event_forward_failures_total",
			Help: "Events that could not be forwarded to the outbound topic",
		})
	}
	return f, nil
}

func (f *Forwarder) Register(bus Subscriber) error {
	return bus.Subscribe("forwarder", f.Handle, events.AllKinds...)
}

func (f *Forwarder) Handle(ctx context.Context, event eventbus.Event) error {
	env, ok := event.(events.Envelope)
	if !ok {
		return nil
	}
	key, value, err := Encode(env)
	if err != nil {
		f.fail()
		return err
	}
	if err := f.producer.Produce(ctx, key, value); err != nil {
		f.fail()
		f.logger.WarnContext(ctx, "failed to forward event",
			"kind", env.EventKind(),
			"event_id", env.EventMeta().ID,
			"error", err,
		)
		return nil
	}
	return nil
}

func (f *Forwarder) fail() {
	if f.failures != nil {
		f.failures.Inc()
	}
}

// Encode returns the message key (first record id, or the event id when the
// event names no record) and its JSON body.
func Encode(env events.Envelope) (key, value []byte, err error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s payload: %w", env.EventKind(), err)
	}
	ids := env.RecordIDs()
	msg := Message{
		Kind:      string(env.EventKind()),
		Meta:      env.EventMeta(),
		RecordIDs: ids,
		Payload:   payload,
	}
	value, err = json.Marshal(msg)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal %s message: %w", env.EventKind(), err)
	}
	if len(ids) > 0 && ids[0] != "" {
		key = []byte(ids[0])
	} else {
		key = []byte(msg.Meta.ID)
	}
	return key, value, nil
}
