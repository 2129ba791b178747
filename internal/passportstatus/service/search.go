package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"passport-status/internal/normalize"
	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/models"
	dErrors "passport-status/pkg/domain-errors"
	"passport-status/pkg/platform/privacy"
)

// Search finds the records matching query. The store narrows candidates by
// identifier and date of birth; names are compared here after normalization.
// Every matched record is published as read, followed by one SearchPerformed.
func (s *Service) Search(ctx context.Context, query models.SearchQuery) (models.MatchOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "passportstatus.Search")
	defer span.End()

	query = dereference(query)
	if query == nil {
		return models.MatchOutcome{}, s.fail(span, dErrors.New(dErrors.CodeInvalidInput, "search query is required"))
	}
	span.SetAttributes(attribute.String("search.kind", query.Kind()))
	if err := query.Validate(); err != nil {
		return models.MatchOutcome{}, s.fail(span, err)
	}

	predicate, firstName, lastName, fingerprint, err := predicateFor(query)
	if err != nil {
		return models.MatchOutcome{}, s.fail(span, err)
	}
	candidates, err := s.store.FindMatching(ctx, predicate)
	if err != nil {
		return models.MatchOutcome{}, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search status records"))
	}

	wantFirst, wantLast := normalize.Normalize(firstName), normalize.Normalize(lastName)
	matched := make([]*models.StatusRecord, 0, len(candidates))
	for _, c := range candidates {
		if normalize.Normalize(c.FirstName) == wantFirst && normalize.Normalize(c.LastName) == wantLast {
			matched = append(matched, c)
		}
	}

	outcome := models.MatchOutcome{Result: models.ClassifyMatches(len(matched)), Records: matched}
	span.SetAttributes(
		attribute.String("search.result", string(outcome.Result)),
		attribute.Int("search.matches", len(matched)),
	)

	ids := make([]string, 0, len(matched))
	for _, r := range matched {
		s.publishRead(ctx, r)
		ids = append(ids, r.ID)
	}
	s.publisher.Publish(ctx, events.SearchPerformed{
		Meta:       events.NewMeta(ctx),
		QueryKind:  query.Kind(),
		Result:     outcome.Result,
		MatchedIDs: ids,
	})

	s.logger.InfoContext(ctx, "status record search",
		"kind", query.Kind(),
		"identifier_fp", fingerprint,
		"result", outcome.Result,
		"matches", len(matched),
	)
	return outcome, nil
}

// SearchByEmail is Search with an EmailQuery.
func (s *Service) SearchByEmail(ctx context.Context, dateOfBirth time.Time, email, firstName, lastName string) (models.MatchOutcome, error) {
	return s.Search(ctx, models.EmailQuery{
		DateOfBirth: dateOfBirth,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
	})
}

// SearchByFileNumber is Search with a FileNumberQuery.
func (s *Service) SearchByFileNumber(ctx context.Context, dateOfBirth time.Time, fileNumber, firstName, lastName string) (models.MatchOutcome, error) {
	return s.Search(ctx, models.FileNumberQuery{
		DateOfBirth: dateOfBirth,
		FileNumber:  fileNumber,
		FirstName:   firstName,
		LastName:    lastName,
	})
}

func predicateFor(query models.SearchQuery) (p models.Predicate, firstName, lastName, fingerprint string, err error) {
	switch q := query.(type) {
	case models.EmailQuery:
		return models.Predicate{
			DateOfBirth: models.DateOnly(q.DateOfBirth),
			Equal:       map[models.MatchField]string{models.MatchFieldEmail: q.Email},
		}, q.FirstName, q.LastName, privacy.Fingerprint(q.Email), nil
	case models.FileNumberQuery:
		return models.Predicate{
			DateOfBirth: models.DateOnly(q.DateOfBirth),
			Equal:       map[models.MatchField]string{models.MatchFieldFileNumber: q.FileNumber},
		}, q.FirstName, q.LastName, privacy.Fingerprint(q.FileNumber), nil
	}
	return models.Predicate{}, "", "", "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported search query %T", query))
}

// dereference turns pointer queries into values. A nil pointer becomes a nil query.
func dereference(query models.SearchQuery) models.SearchQuery {
	switch q := query.(type) {
	case *models.EmailQuery:
		if q == nil {
			return nil
		}
		return *q
	case *models.FileNumberQuery:
		if q == nil {
			return nil
		}
		return *q
	}
	return query
}
