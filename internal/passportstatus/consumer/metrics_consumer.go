package consumer

import (
	"context"
	"log/slog"
	"strings"

	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/metrics"
	"passport-status/pkg/platform/eventbus"
)

// MetricsSubscriber is the bus subscription name of the MetricsConsumer.
const MetricsSubscriber = "metrics"

// MetricsConsumer counts every lifecycle, search and notification event.
type MetricsConsumer struct {
	metrics *metrics.Metrics
	codes   StatusCodeLookup
	logger  *slog.Logger
}

func NewMetricsConsumer(m *metrics.Metrics, codes StatusCodeLookup, logger *slog.Logger) *MetricsConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsConsumer{metrics: m, codes: codes, logger: logger}
}

// Register subscribes the consumer to every event kind it counts.
func (c *MetricsConsumer) Register(bus Subscriber) error {
	return bus.Subscribe(MetricsSubscriber, c.Handle, events.AllKinds...)
}

func (c *MetricsConsumer) Handle(ctx context.Context, event eventbus.Event) error {
	switch e := event.(type) {
	case events.StatusRecordCreated:
		c.handleCreated(ctx, e)
	case events.StatusRecordRead:
		c.metrics.IncRead()
	case events.StatusRecordUpdated:
		c.metrics.IncUpdated()
	case events.StatusRecordDeleted:
		c.metrics.IncDeleted()
	case events.SearchPerformed:
		c.metrics.IncSearch(strings.ToLower(string(e.Result)))
	case events.NotificationRequested:
		c.metrics.IncNotificationRequested()
	case events.NotificationSent:
		c.metrics.IncNotificationSent()
	case events.NotificationNotSent:
		c.metrics.IncNotificationFailed(e.Reason)
	}
	return nil
}

// handleCreated counts the record under its status code. A code missing from
// the reference table is counted separately and logged, never rejected.
func (c *MetricsConsumer) handleCreated(ctx context.Context, e events.StatusRecordCreated) {
	if e.Record == nil {
		return
	}
	var (
		code  string
		known bool
	)
	if c.codes != nil {
		if sc, ok := c.codes.ByID(e.Record.StatusCodeID); ok {
			code, known = strings.ToLower(sc.Code), true
		}
	}
	if !known {
		c.logger.WarnContext(ctx, "invalid status code encountered",
			"record_id", e.Record.ID,
			"status_code_id", e.Record.StatusCodeID,
		)
	}
	c.metrics.IncCreated(code, known)
}
