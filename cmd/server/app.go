package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"passport-status/internal/notification"
	"passport-status/internal/passportstatus/consumer"
	"passport-status/internal/passportstatus/handler"
	psmetrics "passport-status/internal/passportstatus/metrics"
	"passport-status/internal/passportstatus/service"
	"passport-status/internal/passportstatus/statuscode"
	"passport-status/internal/passportstatus/store"
	"passport-status/internal/platform/config"
	"passport-status/internal/platform/kafka"
	"passport-status/internal/platform/metrics"
	"passport-status/internal/platform/middleware"
	"passport-status/internal/platform/postgres"
	platformredis "passport-status/internal/platform/redis"
	"passport-status/pkg/platform/circuit"
	"passport-status/pkg/platform/eventbus"
	"passport-status/pkg/platform/eventlog"
	eventlogmemory "passport-status/pkg/platform/eventlog/store/memory"
	eventlogpostgres "passport-status/pkg/platform/eventlog/store/postgres"
	"passport-status/pkg/platform/middleware/metadata"
	"passport-status/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout    = 30 * time.Second
	topicReplication  = 1
	healthCheckBudget = 2 * time.Second
)

// app holds the wired components and the clients that need closing.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	bus      *eventbus.Bus
	handler  *handler.Handler

	db    *postgres.Connection
	redis *platformredis.Client
	kafka *kafka.Producer
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		registry: metrics.NewRegistry(),
	}
	if err := a.wire(ctx); err != nil {
		_ = a.closeClients(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	codes, err := statuscode.LoadFile(cfg.StatusCodesFile)
	if err != nil {
		return err
	}

	a.bus = eventbus.New(
		eventbus.WithLogger(log),
		eventbus.WithMetrics(eventbus.NewMetrics(a.registry)),
		eventbus.WithBufferSize(cfg.EventBus.BufferSize),
		eventbus.WithSubscriberBufferSize(consumer.MetricsSubscriber, cfg.EventBus.MetricsBufferSize),
	)

	records, events, err := a.openStores(ctx)
	if err != nil {
		return err
	}

	svc, err := service.New(records, a.bus,
		service.WithLogger(log),
		service.WithDefaultActor(cfg.ApplicationName),
	)
	if err != nil {
		return err
	}
	esrf, err := notification.NewService(svc, a.bus, notification.WithLogger(log))
	if err != nil {
		return err
	}

	m := psmetrics.New(a.registry)
	if err := a.registerConsumers(ctx, m, codes, events); err != nil {
		return err
	}

	a.handler = handler.New(svc, esrf, codes, events, log)
	return nil
}

// openStores picks PostgreSQL when a database URL is configured and memory otherwise.
func (a *app) openStores(ctx context.Context) (service.Store, eventlog.Store, error) {
	if a.cfg.Database.URL == "" {
		a.log.Warn("no database configured, status records are kept in memory")
		return store.NewInMemory(), eventlogmemory.NewInMemoryStore(), nil
	}
	conn, err := postgres.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	a.db = conn
	return store.NewPostgres(conn.Pool), eventlogpostgres.New(conn.DB), nil
}

func (a *app) registerConsumers(ctx context.Context, m *psmetrics.Metrics, codes *statuscode.Table, events eventlog.Store) error {
	if err := consumer.NewMetricsConsumer(m, codes, a.log).Register(a.bus); err != nil {
		return err
	}
	if err := consumer.NewEventLogConsumer(events, a.log).Register(a.bus); err != nil {
		return err
	}

	if a.cfg.Kafka.Enabled() {
		producer, err := kafka.New(a.cfg.Kafka, a.log)
		if err != nil {
			return err
		}
		a.kafka = producer
		if err := producer.EnsureTopic(ctx, a.cfg.Kafka.Partitions, topicReplication); err != nil {
			return err
		}
		fwd, err := consumer.NewForwarder(producer, a.log, a.registry)
		if err != nil {
			return err
		}
		if err := fwd.Register(a.bus); err != nil {
			return err
		}
	}

	notifier, err := a.notifier()
	if err != nil {
		return err
	}
	deduper, err := a.deduper(ctx)
	if err != nil {
		return err
	}
	nc := a.cfg.Notification
	breaker := circuit.New("gc-notify",
		circuit.WithFailureThreshold(nc.BreakerThreshold),
		circuit.WithCooldown(nc.BreakerCooldown),
	)
	delivery, err := notification.NewConsumer(notifier, a.bus,
		notification.WithConsumerLogger(a.log),
		notification.WithDeduper(deduper, nc.DedupeTTL),
		notification.WithBreaker(breaker),
		notification.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	return delivery.Register(a.bus)
}

// notifier sends through GC Notify when an API key is configured and only
// logs otherwise.
func (a *app) notifier() (notification.Notifier, error) {
	nc := a.cfg.Notification
	if nc.GCNotifyAPIKey == "" {
		a.log.Warn("no GC Notify API key configured, file number notifications are logged only")
		return notification.NewLogNotifier(a.log), nil
	}
	return notification.NewGCNotifyClient(nc.GCNotifyBaseURL, nc.GCNotifyAPIKey, nc.FileNumberTemplateID, nc.Timeout)
}

func (a *app) deduper(ctx context.Context) (notification.Deduper, error) {
	client, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return notification.NewMemoryDeduper(), nil
	}
	a.redis = client
	return notification.NewRedisDeduper(client), nil
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.RequestID)
	r.Use(metadata.Actor)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recovery(a.log))
	r.Use(middleware.Logger(a.log))
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", metrics.Handler(a.registry))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		a.handler.Register(r)
	})
	return otelhttp.NewHandler(r, "passport-status-api")
}

func (a *app) checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if a.db != nil {
		checks["postgres"] = a.db.Health
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}
	if a.kafka != nil {
		checks["kafka"] = a.kafka.Health
	}
	return checks
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckBudget)
	defer cancel()
	writeHealth(ctx, w, a.checks())
}

// close drains the event bus before closing the clients its consumers use.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.bus.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if pending := a.bus.Pending(); pending > 0 {
		a.log.Warn("events left undelivered at shutdown", "count", pending)
	}
	if dropped := a.bus.Dropped(consumer.MetricsSubscriber); dropped > 0 {
		a.log.Warn("metrics consumer lost events to queue overflow", "count", dropped)
	}
	errs = append(errs, a.closeClients(ctx))
	return errors.Join(errs...)
}

func (a *app) closeClients(ctx context.Context) error {
	var errs []error
	if a.kafka != nil {
		if err := a.kafka.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close kafka: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}
