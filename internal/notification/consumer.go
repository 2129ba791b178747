package notification

import (
	"context"
	"log/slog"
	"time"

	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/metrics"
	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/circuit"
	"passport-status/pkg/platform/eventbus"

	dErrors "passport-status/pkg/domain-errors"
)

// DefaultDedupeWindow is how long a delivered record is protected from repeat
// notification.
const DefaultDedupeWindow = 15 * time.Minute

// Consumer delivers requested notifications and publishes the outcome. It
// never retries: a failure produces a NotSent event and the applicant can ask
// again.
type Consumer struct {
	notifier  Notifier
	publisher Publisher
	deduper   Deduper
	breaker   *circuit.Breaker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	window    time.Duration
}

// Subscriber is the registration side of the event bus.
type Subscriber interface {
	Subscribe(name string, handler eventbus.Handler, kinds ...eventbus.Kind) error
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func WithDeduper(d Deduper, window time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.deduper = d
		if window > 0 {
			c.window = window
		}
	}
}

func WithBreaker(b *circuit.Breaker) ConsumerOption {
	return func(c *Consumer) {
		c.breaker = b
	}
}

func WithMetrics(m *metrics.Metrics) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = m
	}
}

func NewConsumer(notifier Notifier, publisher Publisher, opts ...ConsumerOption) (*Consumer, error) {
	if notifier == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "notifier is required")
	}
	if publisher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "publisher is required")
	}
	c := &Consumer{
		notifier:  notifier,
		publisher: publisher,
		deduper:   NewMemoryDeduper(),
		breaker:   circuit.New("notification"),
		logger:    slog.Default(),
		window:    DefaultDedupeWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register subscribes the consumer to notification requests.
func (c *Consumer) Register(bus Subscriber) error {
	return bus.Subscribe("notification", c.Handle, events.KindNotificationRequested)
}

func (c *Consumer) Handle(ctx context.Context, event eventbus.Event) error {
	req, ok := event.(events.NotificationRequested)
	if !ok || req.Record == nil {
		return nil
	}
	c.deliver(ctx, req.Record)
	return nil
}

func (c *Consumer) deliver(ctx context.Context, record *models.StatusRecord) {
	switch {
	case record.Email == "":
		c.notSent(ctx, record.ID, events.ReasonNoEmail)
		return
	case record.FileNumber == "":
		c.notSent(ctx, record.ID, events.ReasonNoFileNumber)
		return
	}

	if !c.breaker.Allow() {
		c.notSent(ctx, record.ID, events.ReasonCircuitOpen)
		return
	}

	claimed, err := c.deduper.Claim(ctx, record.ID, c.window)
	if err != nil {
		// A broken dedupe store must not block delivery.
		c.logger.WarnContext(ctx, "notification dedupe unavailable", "record_id", record.ID, "error", err)
		claimed = true
	}
	if !claimed {
		c.notSent(ctx, record.ID, events.ReasonDuplicate)
		return
	}

	start := time.Now()
	err = c.notifier.SendFileNumber(ctx, FileNumberNotice{
		RecordID:   record.ID,
		Email:      record.Email,
		FileNumber: record.FileNumber,
	})
	c.metrics.ObserveNotificationLatency(time.Since(start))

	if err != nil {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "notification circuit opened", "breaker", c.breaker.Name())
		}
		if relErr := c.deduper.Release(ctx, record.ID); relErr != nil {
			c.logger.WarnContext(ctx, "failed to release notification claim", "record_id", record.ID, "error", relErr)
		}
		c.logger.ErrorContext(ctx, "file number notification failed", "record_id", record.ID, "error", err)
		c.notSent(ctx, record.ID, events.ReasonDeliveryFailed)
		return
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "notification circuit closed", "breaker", c.breaker.Name())
	}
	c.publisher.Publish(ctx, events.NotificationSent{Meta: events.NewMeta(ctx), RecordID: record.ID})
}

func (c *Consumer) notSent(ctx context.Context, recordID, reason string) {
	c.logger.InfoContext(ctx, "file number notification not sent", "record_id", recordID, "reason", reason)
	c.publisher.Publish(ctx, events.NotificationNotSent{
		Meta:     events.NewMeta(ctx),
		RecordID: recordID,
		Reason:   reason,
	})
}
