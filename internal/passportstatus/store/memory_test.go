package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

var dob = time.Date(1985, 2, 11, 0, 0, 0, 0, time.UTC)

func newRecord(email, fileNumber, first, last string) *models.StatusRecord {
	return &models.StatusRecord{
		DateOfBirth: dob,
		Email:       email,
		FileNumber:  fileNumber,
		FirstName:   first,
		LastName:    last,
	}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	s.Run("assigns an id and returns a copy", func() {
		input := newRecord("a@example.com", "F1", "Ann", "Lee")
		created, err := s.store.Create(s.ctx, input)
		s.Require().NoError(err)
		s.NotEmpty(created.ID)
		s.Empty(input.ID, "caller's record is not modified")

		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created, found)

		found.Email = "changed@example.com"
		again, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("a@example.com", again.Email)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindByID(s.ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUpdate() {
	created, err := s.store.Create(s.ctx, newRecord("a@example.com", "F1", "Ann", "Lee"))
	s.Require().NoError(err)

	s.Run("applies mutation and returns both versions", func() {
		before, after, err := s.store.Update(s.ctx, created.ID, func(r *models.StatusRecord) error {
			r.FileNumber = "F2"
			return nil
		})
		s.Require().NoError(err)
		s.Equal("F1", before.FileNumber)
		s.Equal("F2", after.FileNumber)
		s.Equal(created.ID, after.ID)
	})

	s.Run("mutation error leaves record untouched", func() {
		boom := errors.New("boom")
		_, _, err := s.store.Update(s.ctx, created.ID, func(r *models.StatusRecord) error {
			r.FileNumber = "F3"
			return boom
		})
		s.ErrorIs(err, boom)

		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("F2", found.FileNumber)
	})

	s.Run("unknown id", func() {
		_, _, err := s.store.Update(s.ctx, "missing", func(*models.StatusRecord) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestConcurrentUpdatesAreSerialized() {
	created, err := s.store.Create(s.ctx, newRecord("a@example.com", "0", "Ann", "Lee"))
	s.Require().NoError(err)

	const writers = 50
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = s.store.Update(s.ctx, created.ID, func(r *models.StatusRecord) error {
				r.ApplicationRegisterSID += "x"
				return nil
			})
		}()
	}
	wg.Wait()

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Len(found.ApplicationRegisterSID, writers)
}

func (s *InMemoryStoreSuite) TestDelete() {
	created, err := s.store.Create(s.ctx, newRecord("a@example.com", "F1", "Ann", "Lee"))
	s.Require().NoError(err)

	deleted, err := s.store.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, deleted.ID)

	_, err = s.store.FindByID(s.ctx, created.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Delete(s.ctx, created.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, total, err := s.store.List(s.ctx, 0, 10)
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *InMemoryStoreSuite) TestListPagesInInsertionOrder() {
	var ids []string
	for _, f := range []string{"F1", "F2", "F3", "F4", "F5"} {
		r, err := s.store.Create(s.ctx, newRecord("", f, "Ann", "Lee"))
		s.Require().NoError(err)
		ids = append(ids, r.ID)
	}

	page, total, err := s.store.List(s.ctx, 2, 2)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Require().Len(page, 2)
	s.Equal(ids[2], page[0].ID)
	s.Equal(ids[3], page[1].ID)

	page, _, err = s.store.List(s.ctx, 4, 10)
	s.Require().NoError(err)
	s.Len(page, 1)

	page, _, err = s.store.List(s.ctx, 10, 10)
	s.Require().NoError(err)
	s.Empty(page)
}

func (s *InMemoryStoreSuite) TestFindMatching() {
	_, err := s.store.Create(s.ctx, newRecord("Jane@Example.com", "F1", "Jane", "Doe"))
	s.Require().NoError(err)
	_, err = s.store.Create(s.ctx, newRecord("jane@example.com", "F2", "Janet", "Doe"))
	s.Require().NoError(err)
	other := newRecord("jane@example.com", "F3", "Jane", "Doe")
	other.DateOfBirth = dob.AddDate(1, 0, 0)
	_, err = s.store.Create(s.ctx, other)
	s.Require().NoError(err)

	s.Run("email is case-insensitive and date must match", func() {
		got, err := s.store.FindMatching(s.ctx, models.Predicate{
			DateOfBirth: dob,
			Equal:       map[models.MatchField]string{models.MatchFieldEmail: "JANE@example.COM"},
		})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("file number", func() {
		got, err := s.store.FindMatching(s.ctx, models.Predicate{
			DateOfBirth: dob,
			Equal:       map[models.MatchField]string{models.MatchFieldFileNumber: "f2"},
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("Janet", got[0].FirstName)
	})

	s.Run("no match", func() {
		got, err := s.store.FindMatching(s.ctx, models.Predicate{
			DateOfBirth: dob,
			Equal:       map[models.MatchField]string{models.MatchFieldFileNumber: "nope"},
		})
		s.Require().NoError(err)
		s.Empty(got)
	})
}
