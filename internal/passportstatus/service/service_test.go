package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Publisher

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/models"
	"passport-status/internal/passportstatus/store"
	dErrors "passport-status/pkg/domain-errors"
	"passport-status/pkg/platform/eventbus"
	"passport-status/pkg/requestcontext"
)

// capturePublisher records published events synchronously.
type capturePublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, e eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) kinds() []eventbus.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]eventbus.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventKind()
	}
	return out
}

func (p *capturePublisher) last() eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

func (p *capturePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type LifecycleSuite struct {
	suite.Suite
	store     *store.InMemory
	publisher *capturePublisher
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.publisher = &capturePublisher{}
	svc, err := New(s.store, s.publisher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithDefaultActor("passport-status-test"),
	)
	s.Require().NoError(err)
	s.service = svc
	s.now = time.Date(2024, 4, 2, 13, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *LifecycleSuite) newRecord() *models.StatusRecord {
	return &models.StatusRecord{
		DateOfBirth:  time.Date(1979, 11, 3, 0, 0, 0, 0, time.UTC),
		Email:        "marie.cote@example.com",
		FileNumber:   "FN-1001",
		FirstName:    "Marie",
		LastName:     "Côté",
		StatusCodeID: "code-1",
	}
}

func (s *LifecycleSuite) TestNew() {
	s.Run("store is required", func() {
		_, err := New(nil, s.publisher)
		s.Error(err)
	})
	s.Run("publisher is required", func() {
		_, err := New(s.store, nil)
		s.Error(err)
	})
}

func (s *LifecycleSuite) TestCreate() {
	s.Run("assigns id and audit fields and publishes created", func() {
		created, err := s.service.Create(s.ctx, s.newRecord())
		s.Require().NoError(err)

		s.NotEmpty(created.ID)
		s.Equal("passport-status-test", created.CreatedBy)
		s.Equal("passport-status-test", created.LastModifiedBy)
		s.Equal(s.now, created.CreatedAt)
		s.Equal(s.now, created.LastModifiedAt)

		evt, ok := s.publisher.last().(events.StatusRecordCreated)
		s.Require().True(ok)
		s.Equal(created.ID, evt.Record.ID)
	})

	s.Run("actor from request context wins", func() {
		ctx := requestcontext.WithActor(s.ctx, "batch-loader")
		created, err := s.service.Create(ctx, s.newRecord())
		s.Require().NoError(err)
		s.Equal("batch-loader", created.CreatedBy)
	})

	s.Run("caller-supplied id is rejected without side effects", func() {
		s.publisher.reset()
		r := s.newRecord()
		r.ID = "chosen-by-caller"

		_, err := s.service.Create(s.ctx, r)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Empty(s.publisher.kinds())
		_, total, _ := s.store.List(s.ctx, 0, 100)
		s.Equal(2, total)
	})

	s.Run("missing required field is rejected", func() {
		r := s.newRecord()
		r.LastName = ""
		_, err := s.service.Create(s.ctx, r)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *LifecycleSuite) TestCreateThenReadRoundTrip() {
	input := s.newRecord()
	created, err := s.service.Create(s.ctx, input)
	s.Require().NoError(err)

	read, err := s.service.Read(s.ctx, created.ID)
	s.Require().NoError(err)

	s.Equal(input.DateOfBirth, read.DateOfBirth)
	s.Equal(input.Email, read.Email)
	s.Equal(input.FileNumber, read.FileNumber)
	s.Equal(input.FirstName, read.FirstName)
	s.Equal(input.LastName, read.LastName)
	s.Equal(input.StatusCodeID, read.StatusCodeID)
	s.Equal([]eventbus.Kind{events.KindCreated, events.KindRead}, s.publisher.kinds())
}

func (s *LifecycleSuite) TestRead() {
	s.Run("blank id is invalid", func() {
		_, err := s.service.Read(s.ctx, " ")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing record is not found and publishes nothing", func() {
		s.publisher.reset()
		_, err := s.service.Read(s.ctx, "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.publisher.kinds())
	})
}

func (s *LifecycleSuite) TestUpdateAppliesSparsePatch() {
	created, err := s.service.Create(s.ctx, s.newRecord())
	s.Require().NoError(err)
	s.publisher.reset()

	later := s.now.Add(72 * time.Hour)
	ctx := requestcontext.WithActor(requestcontext.WithTime(context.Background(), later), "officer-9")
	code := "code-4"
	updated, err := s.service.Update(ctx, models.StatusRecordPatch{ID: created.ID, StatusCodeID: &code})
	s.Require().NoError(err)

	expected := created.Clone()
	expected.StatusCodeID = "code-4"
	expected.LastModifiedBy = "officer-9"
	expected.LastModifiedAt = later
	s.Equal(expected, updated)

	evt, ok := s.publisher.last().(events.StatusRecordUpdated)
	s.Require().True(ok)
	s.Equal("code-1", evt.Before.StatusCodeID)
	s.Equal("code-4", evt.After.StatusCodeID)
	s.Equal(created.CreatedAt, evt.After.CreatedAt)
}

func (s *LifecycleSuite) TestUpdateErrors() {
	s.Run("missing id", func() {
		_, err := s.service.Update(s.ctx, models.StatusRecordPatch{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown record", func() {
		s.publisher.reset()
		email := "x@example.com"
		_, err := s.service.Update(s.ctx, models.StatusRecordPatch{ID: "missing", Email: &email})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.publisher.kinds())
	})
}

func (s *LifecycleSuite) TestDelete() {
	created, err := s.service.Create(s.ctx, s.newRecord())
	s.Require().NoError(err)
	s.publisher.reset()

	s.Require().NoError(s.service.Delete(s.ctx, created.ID))
	s.Equal([]eventbus.Kind{events.KindDeleted}, s.publisher.kinds())

	_, err = s.service.Read(s.ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Run("deleting again is a silent no-op", func() {
		s.publisher.reset()
		s.Require().NoError(s.service.Delete(s.ctx, created.ID))
		s.Empty(s.publisher.kinds())
	})

	s.Run("blank id is a silent no-op", func() {
		s.publisher.reset()
		s.Require().NoError(s.service.Delete(s.ctx, ""))
		s.Require().NoError(s.service.Delete(s.ctx, "   "))
		s.Empty(s.publisher.kinds())
	})
}

func (s *LifecycleSuite) TestListPublishesReadPerRecord() {
	for range 3 {
		_, err := s.service.Create(s.ctx, s.newRecord())
		s.Require().NoError(err)
	}
	s.publisher.reset()

	page, err := s.service.List(s.ctx, models.PageRequest{Page: 0, Size: 2})
	s.Require().NoError(err)
	s.Len(page.Records, 2)
	s.Equal(3, page.Total)
	s.Equal([]eventbus.Kind{events.KindRead, events.KindRead}, s.publisher.kinds())

	page, err = s.service.List(s.ctx, models.PageRequest{Page: 1, Size: 2})
	s.Require().NoError(err)
	s.Len(page.Records, 1)
}

func (s *LifecycleSuite) TestPublishedRecordsAreSnapshots() {
	created, err := s.service.Create(s.ctx, s.newRecord())
	s.Require().NoError(err)
	evt := s.publisher.last().(events.StatusRecordCreated)

	created.Email = "mutated@example.com"
	s.Equal("marie.cote@example.com", evt.Record.Email)
}
