// Package eventbus is an in-process publish/subscribe bus.
//
// Publish never blocks on subscribers and never fails. Each subscriber owns a
// bounded FIFO queue drained by a single goroutine, so a subscriber observes
// events in the order one goroutine published them. When a queue is full the
// oldest pending event is dropped, so subscribers that must not lose events
// get a larger queue with WithSubscriberBufferSize. Handler errors and panics are logged and
// counted; they never reach the publisher.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultBufferSize is the per-subscriber queue capacity when none is configured.
const DefaultBufferSize = 1024

// Kind identifies an event type for subscription filtering.
type Kind string

// Event is anything published on the bus.
type Event interface {
	EventKind() Kind
}

// Handler processes one event. The context carries the publisher's values but
// not its cancellation or deadline.
type Handler func(ctx context.Context, event Event) error

type envelope struct {
	ctx   context.Context
	event Event
}

type subscription struct {
	name    string
	kinds   map[Kind]struct{}
	handler Handler
	queue   *ringBuffer
	wake    chan struct{}
}

func (s *subscription) wants(kind Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}

// Bus fans events out to subscribers.
type Bus struct {
	mu      sync.RWMutex
	subs    []*subscription
	closed  bool
	closing chan struct{}
	wg      sync.WaitGroup

	bufferSize  int
	bufferSizes map[string]int
	logger      *slog.Logger
	metrics     *Metrics
}

type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// WithBufferSize sets the queue capacity of subscribers registered afterwards.
func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// WithSubscriberBufferSize gives the named subscriber its own queue capacity,
// overriding WithBufferSize for that subscriber only.
func WithSubscriberBufferSize(name string, n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSizes[name] = n
		}
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{
		closing:     make(chan struct{}),
		bufferSize:  DefaultBufferSize,
		bufferSizes: map[string]int{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for the given kinds (all kinds when none are
// given) and starts its delivery goroutine.
func (b *Bus) Subscribe(name string, handler Handler, kinds ...Kind) error {
	if handler == nil {
		return fmt.Errorf("subscribe %q: nil handler", name)
	}
	s := &subscription{
		name:    name,
		kinds:   make(map[Kind]struct{}, len(kinds)),
		handler: handler,
		queue:   newRingBuffer(b.queueSize(name)),
		wake:    make(chan struct{}, 1),
	}
	for _, k := range kinds {
		s.kinds[k] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("subscribe %q: bus is closed", name)
	}
	for _, existing := range b.subs {
		if existing.name == name {
			return fmt.Errorf("subscribe %q: name already registered", name)
		}
	}
	b.subs = append(b.subs, s)
	b.wg.Add(1)
	go b.run(s)
	return nil
}

func (b *Bus) queueSize(name string) int {
	if n, ok := b.bufferSizes[name]; ok {
		return n
	}
	return b.bufferSize
}

// Publish queues event for every interested subscriber and returns immediately.
// Events published after Close are discarded.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event == nil {
		return
	}
	env := envelope{ctx: context.WithoutCancel(ctx), event: event}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.WarnContext(ctx, "event published after bus closed", "kind", event.EventKind())
		return
	}
	b.metrics.incPublished()

	for _, s := range b.subs {
		if !s.wants(event.EventKind()) {
			continue
		}
		if evicted := s.queue.enqueue(env); evicted {
			b.metrics.incDropped(s.name)
			b.logger.WarnContext(ctx, "subscriber queue full, dropped oldest event",
				"subscriber", s.name,
				"kind", event.EventKind(),
			)
		}
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (b *Bus) run(s *subscription) {
	defer b.wg.Done()
	for {
		b.drain(s)
		select {
		case <-s.wake:
		case <-b.closing:
			b.drain(s)
			return
		}
	}
}

func (b *Bus) drain(s *subscription) {
	for {
		env, ok := s.queue.dequeue()
		if !ok {
			return
		}
		b.dispatch(s, env)
	}
}

func (b *Bus) dispatch(s *subscription, env envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.incFailed(s.name)
			b.logger.ErrorContext(env.ctx, "event handler panicked",
				"subscriber", s.name,
				"kind", env.event.EventKind(),
				"panic", fmt.Sprint(r),
			)
		}
	}()

	if err := s.handler(env.ctx, env.event); err != nil {
		b.metrics.incFailed(s.name)
		b.logger.ErrorContext(env.ctx, "event handler failed",
			"subscriber", s.name,
			"kind", env.event.EventKind(),
			"error", err,
		)
		return
	}
	b.metrics.incDelivered(s.name)
}

// Dropped returns how many events the named subscriber has lost to overflow.
func (b *Bus) Dropped(name string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.name == name {
			return s.queue.droppedCount()
		}
	}
	return 0
}

// Pending returns the number of queued, undelivered events across subscribers.
func (b *Bus) Pending() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.subs {
		n += s.queue.len()
	}
	return n
}

// Close stops accepting events and waits for queued events to be handled or
// for ctx to end, whichever comes first.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.closing)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus drain: %w", ctx.Err())
	}
}
