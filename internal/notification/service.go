// Package notification sends an applicant their file number by email.
//
// Requests are accepted synchronously by Service and delivered asynchronously
// by Consumer, which listens for NotificationRequested events.
package notification

import (
	"context"
	"log/slog"
	"regexp"

	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/eventbus"
	"passport-status/pkg/platform/privacy"
	"passport-status/pkg/requestcontext"

	dErrors "passport-status/pkg/domain-errors"
)

// emailPattern rejects addresses without a dotted domain, such as user@localhost.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// Searcher finds status records by email.
type Searcher interface {
	Search(ctx context.Context, query models.SearchQuery) (models.MatchOutcome, error)
}

// Publisher hands events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

// Service accepts file-number requests.
type Service struct {
	searcher  Searcher
	publisher Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(searcher Searcher, publisher Publisher, opts ...Option) (*Service, error) {
	if searcher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "searcher is required")
	}
	if publisher == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "publisher is required")
	}
	s := &Service{searcher: searcher, publisher: publisher, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RequestFileNumber queues a file-number email for the record matching query.
// A miss returns nil so callers cannot tell whether a record exists; more than
// one match is a non-unique error and nothing is sent.
func (s *Service) RequestFileNumber(ctx context.Context, query models.EmailQuery) error {
	if err := query.Validate(); err != nil {
		return err
	}
	if !emailPattern.MatchString(query.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "email must be a valid email address")
	}
	if models.DateOnly(query.DateOfBirth).After(requestcontext.Now(ctx)) {
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth must be in the past")
	}

	outcome, err := s.searcher.Search(ctx, query)
	if err != nil {
		return err
	}

	switch outcome.Result {
	case models.MatchNonUnique:
		s.logger.WarnContext(ctx, "file number request matched several records",
			"email_fingerprint", privacy.Fingerprint(query.Email),
			"matches", len(outcome.Records),
		)
		return dErrors.New(dErrors.CodeNonUniqueMatch, "search query returned non-unique file numbers")
	case models.MatchHit:
		s.publisher.Publish(ctx, events.NotificationRequested{
			Meta:   events.NewMeta(ctx),
			Record: outcome.Record().Clone(),
		})
	default:
		s.logger.DebugContext(ctx, "file number request matched no record",
			"email_fingerprint", privacy.Fingerprint(query.Email),
		)
	}
	return nil
}
