package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"passport-status/internal/passportstatus/models"
	"passport-status/internal/passportstatus/service/mocks"
	dErrors "passport-status/pkg/domain-errors"
	"passport-status/pkg/platform/sentinel"
)

// StoreFailureSuite drives the service against a mocked store to cover
// failure paths the in-memory store cannot produce.
type StoreFailureSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	publisher *mocks.MockPublisher
	service   *Service
	ctx       context.Context
}

func TestStoreFailureSuite(t *testing.T) {
	suite.Run(t, new(StoreFailureSuite))
}

func (s *StoreFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	svc, err := New(s.store, s.publisher, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.service = svc
	s.ctx = context.Background()
}

func (s *StoreFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

var errDatabaseDown = errors.New("connection refused")

func (s *StoreFailureSuite) TestCreateStoreFailure() {
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errDatabaseDown)

	_, err := s.service.Create(s.ctx, &models.StatusRecord{
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		FirstName:   "A",
		LastName:    "B",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, errDatabaseDown)
}

func (s *StoreFailureSuite) TestUpdateOfVanishedRecordIsNotFound() {
	s.store.EXPECT().Update(gomock.Any(), "r1", gomock.Any()).Return(nil, nil, sentinel.ErrNotFound)

	email := "a@example.com"
	_, err := s.service.Update(s.ctx, models.StatusRecordPatch{ID: "r1", Email: &email})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *StoreFailureSuite) TestUpdateRunsPatchInsideStoreCallback() {
	stored := &models.StatusRecord{ID: "r1", FirstName: "A", LastName: "B", Email: "old@example.com"}
	s.store.EXPECT().Update(gomock.Any(), "r1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, mutate func(*models.StatusRecord) error) (*models.StatusRecord, *models.StatusRecord, error) {
			after := stored.Clone()
			if err := mutate(after); err != nil {
				return nil, nil, err
			}
			return stored.Clone(), after, nil
		})
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(1)

	email := "new@example.com"
	updated, err := s.service.Update(s.ctx, models.StatusRecordPatch{ID: "r1", Email: &email})
	s.Require().NoError(err)
	s.Equal("new@example.com", updated.Email)
	s.Equal("A", updated.FirstName)
}

func (s *StoreFailureSuite) TestDeleteStoreFailureSurfaces() {
	s.store.EXPECT().Delete(gomock.Any(), "r1").Return(nil, errDatabaseDown)

	err := s.service.Delete(s.ctx, "r1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *StoreFailureSuite) TestSearchStoreFailurePublishesNothing() {
	s.store.EXPECT().FindMatching(gomock.Any(), gomock.Any()).Return(nil, errDatabaseDown)

	_, err := s.service.SearchByFileNumber(s.ctx, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), "F1", "A", "B")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *StoreFailureSuite) TestListStoreFailure() {
	s.store.EXPECT().List(gomock.Any(), 0, models.DefaultPageSize).Return(nil, 0, errDatabaseDown)

	_, err := s.service.List(s.ctx, models.PageRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
