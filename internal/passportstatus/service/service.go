package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/models"
	dErrors "passport-status/pkg/domain-errors"
	"passport-status/pkg/platform/eventbus"
	"passport-status/pkg/platform/sentinel"
	"passport-status/pkg/requestcontext"
)

// Store persists status records. Update must apply mutate atomically with
// respect to other writers of the same record.
type Store interface {
	Create(ctx context.Context, record *models.StatusRecord) (*models.StatusRecord, error)
	FindByID(ctx context.Context, id string) (*models.StatusRecord, error)
	Update(ctx context.Context, id string, mutate func(*models.StatusRecord) error) (before, after *models.StatusRecord, err error)
	Delete(ctx context.Context, id string) (*models.StatusRecord, error)
	List(ctx context.Context, offset, limit int) ([]*models.StatusRecord, int, error)
	FindMatching(ctx context.Context, p models.Predicate) ([]*models.StatusRecord, error)
}

// Publisher is the fire-and-forget side of the event bus.
type Publisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

// Service manages the status-record lifecycle and answers identity searches.
type Service struct {
	store        Store
	publisher    Publisher
	logger       *slog.Logger
	tracer       trace.Tracer
	defaultActor string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithDefaultActor sets the audit identity used when the request carries none.
func WithDefaultActor(actor string) Option {
	return func(s *Service) {
		s.defaultActor = actor
	}
}

func New(store Store, publisher Publisher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("status record store is required")
	}
	if publisher == nil {
		return nil, errors.New("event publisher is required")
	}
	s := &Service{
		store:        store,
		publisher:    publisher,
		logger:       slog.Default(),
		tracer:       otel.Tracer("passport-status/passportstatus"),
		defaultActor: "passport-status-api",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create persists a new record. The store assigns the id; audit fields come
// from the request context.
func (s *Service) Create(ctx context.Context, record *models.StatusRecord) (*models.StatusRecord, error) {
	ctx, span := s.tracer.Start(ctx, "passportstatus.Create")
	defer span.End()

	if err := record.ValidateForCreate(); err != nil {
		return nil, s.fail(span, err)
	}

	actor, now := s.actor(ctx), requestcontext.Now(ctx)
	input := record.Clone()
	input.DateOfBirth = models.DateOnly(input.DateOfBirth)
	input.StatusDate = models.DateOnly(input.StatusDate)
	input.StampCreated(actor, now)

	created, err := s.store.Create(ctx, input)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create status record"))
	}
	span.SetAttributes(attribute.String("status_record.id", created.ID))

	s.publisher.Publish(ctx, events.StatusRecordCreated{Meta: events.NewMeta(ctx), Record: created.Clone()})
	s.logger.InfoContext(ctx, "status record created",
		"record_id", created.ID,
		"status_code_id", created.StatusCodeID,
	)
	return created, nil
}

// Read returns the record with id. A missing record publishes nothing.
func (s *Service) Read(ctx context.Context, id string) (*models.StatusRecord, error) {
	ctx, span := s.tracer.Start(ctx, "passportstatus.Read", trace.WithAttributes(attribute.String("status_record.id", id)))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, s.fail(span, dErrors.New(dErrors.CodeInvalidInput, "id is required"))
	}

	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, translate(err, "failed to read status record"))
	}

	s.publishRead(ctx, record)
	return record, nil
}

// Update applies a sparse patch to the current stored version of the record.
func (s *Service) Update(ctx context.Context, patch models.StatusRecordPatch) (*models.StatusRecord, error) {
	ctx, span := s.tracer.Start(ctx, "passportstatus.Update", trace.WithAttributes(attribute.String("status_record.id", patch.ID)))
	defer span.End()

	if err := patch.Validate(); err != nil {
		return nil, s.fail(span, err)
	}

	actor, now := s.actor(ctx), requestcontext.Now(ctx)
	before, after, err := s.store.Update(ctx, patch.ID, func(r *models.StatusRecord) error {
		patch.ApplyTo(r, actor, now)
		return nil
	})
	if err != nil {
		return nil, s.fail(span, translate(err, "failed to update status record"))
	}

	s.publisher.Publish(ctx, events.StatusRecordUpdated{
		Meta:   events.NewMeta(ctx),
		Before: before.Clone(),
		After:  after.Clone(),
	})
	s.logger.InfoContext(ctx, "status record updated", "record_id", after.ID)
	return after, nil
}

// Delete removes the record with id. Deleting a missing record, or a blank id, is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "passportstatus.Delete", trace.WithAttributes(attribute.String("status_record.id", id)))
	defer span.End()

	// No record has a blank id, so deleting one is the same no-op as a missing record.
	if strings.TrimSpace(id) == "" {
		s.logger.DebugContext(ctx, "delete with blank id ignored")
		return nil
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.DebugContext(ctx, "delete of missing status record ignored", "record_id", id)
			return nil
		}
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete status record"))
	}

	s.publisher.Publish(ctx, events.StatusRecordDeleted{Meta: events.NewMeta(ctx), Record: deleted.Clone()})
	s.logger.InfoContext(ctx, "status record deleted", "record_id", id)
	return nil
}

// List returns one page of records in insertion order, publishing a read per record.
func (s *Service) List(ctx context.Context, req models.PageRequest) (*models.Page, error) {
	ctx, span := s.tracer.Start(ctx, "passportstatus.List")
	defer span.End()

	req = req.Normalized()
	records, total, err := s.store.List(ctx, req.Offset(), req.Size)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list status records"))
	}
	for _, r := range records {
		s.publishRead(ctx, r)
	}
	return &models.Page{Records: records, Page: req.Page, Size: req.Size, Total: total}, nil
}

func (s *Service) publishRead(ctx context.Context, record *models.StatusRecord) {
	s.publisher.Publish(ctx, events.StatusRecordRead{Meta: events.NewMeta(ctx), Record: record.Clone()})
}

func (s *Service) actor(ctx context.Context) string {
	if actor := requestcontext.Actor(ctx); actor != "" {
		return actor
	}
	return s.defaultActor
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

// translate maps store sentinels onto domain errors.
func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "status record not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
