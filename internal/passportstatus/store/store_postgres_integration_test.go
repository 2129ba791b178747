//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passport-status/internal/passportstatus/models"
	"passport-status/internal/passportstatus/store"
	"passport-status/pkg/platform/sentinel"
	"passport-status/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "passport_statuses"))
}

func (s *PostgresStoreSuite) record(email, fileNumber, first, last string) *models.StatusRecord {
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	return &models.StatusRecord{
		DateOfBirth:    time.Date(1985, 2, 11, 0, 0, 0, 0, time.UTC),
		Email:          email,
		FileNumber:     fileNumber,
		FirstName:      first,
		LastName:       last,
		CreatedBy:      "tester",
		CreatedAt:      now,
		LastModifiedBy: "tester",
		LastModifiedAt: now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	created, err := s.store.Create(s.ctx, s.record("ann@example.com", "F1", "Ann", "Lee"))
	s.Require().NoError(err)
	s.NotEmpty(created.ID)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("ann@example.com", found.Email)
	s.Equal("F1", found.FileNumber)
	s.True(models.SameDate(created.DateOfBirth, found.DateOfBirth))
	s.True(created.CreatedAt.Equal(found.CreatedAt))
	s.True(found.StatusDate.IsZero())
	s.Empty(found.ApplicationRegisterSID)

	_, err = s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdate() {
	created, err := s.store.Create(s.ctx, s.record("ann@example.com", "F1", "Ann", "Lee"))
	s.Require().NoError(err)

	before, after, err := s.store.Update(s.ctx, created.ID, func(r *models.StatusRecord) error {
		r.FileNumber = "F2"
		r.StatusDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		return nil
	})
	s.Require().NoError(err)
	s.Equal("F1", before.FileNumber)
	s.Equal("F2", after.FileNumber)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("F2", found.FileNumber)
	s.True(models.SameDate(after.StatusDate, found.StatusDate))

	s.Run("mutation error rolls back", func() {
		_, _, err := s.store.Update(s.ctx, created.ID, func(r *models.StatusRecord) error {
			r.FileNumber = "F3"
			return errors.New("rejected")
		})
		s.Error(err)
		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("F2", found.FileNumber)
	})

	s.Run("missing id", func() {
		_, _, err := s.store.Update(s.ctx, "missing", func(*models.StatusRecord) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentUpdatesSerialize checks the row lock keeps every increment.
func (s *PostgresStoreSuite) TestConcurrentUpdatesSerialize() {
	created, err := s.store.Create(s.ctx, s.record("ann@example.com", "", "Ann", "Lee"))
	s.Require().NoError(err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.store.Update(s.ctx, created.ID, func(r *models.StatusRecord) error {
				r.FileNumber += "x"
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Len(found.FileNumber, writers)
}

func (s *PostgresStoreSuite) TestDelete() {
	created, err := s.store.Create(s.ctx, s.record("ann@example.com", "F1", "Ann", "Lee"))
	s.Require().NoError(err)

	deleted, err := s.store.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, deleted.ID)

	_, err = s.store.Delete(s.ctx, created.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListPagesInCreationOrder() {
	var ids []string
	for _, name := range []string{"Ann", "Bob", "Cy"} {
		r, err := s.store.Create(s.ctx, s.record("", "", name, "Lee"))
		s.Require().NoError(err)
		ids = append(ids, r.ID)
	}

	page, total, err := s.store.List(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(page, 2)
	s.Equal(ids[1], page[0].ID)
	s.Equal(ids[2], page[1].ID)
}

func (s *PostgresStoreSuite) TestFindMatchingIgnoresCase() {
	_, err := s.store.Create(s.ctx, s.record("Ann@Example.com", "F1", "Ann", "Lee"))
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, s.record("bob@example.com", "F2", "Bob", "Lee"))
	s.Require().NoError(err)

	dob := time.Date(1985, 2, 11, 0, 0, 0, 0, time.UTC)
	matches, err := s.store.FindMatching(s.ctx, models.Predicate{
		DateOfBirth: dob,
		Equal:       map[models.MatchField]string{models.MatchFieldEmail: "ann@EXAMPLE.com"},
	})
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal("F1", matches[0].FileNumber)

	matches, err = s.store.FindMatching(s.ctx, models.Predicate{
		DateOfBirth: dob.AddDate(0, 0, 1),
		Equal:       map[models.MatchField]string{models.MatchFieldEmail: "ann@example.com"},
	})
	s.Require().NoError(err)
	s.Empty(matches)
}
