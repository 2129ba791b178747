package models

import (
	"strings"
	"time"

	dErrors "passport-status/pkg/domain-errors"
)

// SearchQuery is either an EmailQuery or a FileNumberQuery.
type SearchQuery interface {
	// Kind names the identifier the query is keyed on.
	Kind() string
	Validate() error
	isSearchQuery()
}

// EmailQuery locates a record by email, date of birth and name.
type EmailQuery struct {
	DateOfBirth time.Time
	Email       string
	FirstName   string
	LastName    string
}

func (EmailQuery) Kind() string   { return "email" }
func (EmailQuery) isSearchQuery() {}

func (q EmailQuery) Validate() error {
	if isBlank(q.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	return validateIdentity(q.DateOfBirth, q.FirstName, q.LastName)
}

// FileNumberQuery locates a record by file number, date of birth and name.
type FileNumberQuery struct {
	DateOfBirth time.Time
	FileNumber  string
	FirstName   string
	LastName    string
}

func (FileNumberQuery) Kind() string   { return "file_number" }
func (FileNumberQuery) isSearchQuery() {}

func (q FileNumberQuery) Validate() error {
	if isBlank(q.FileNumber) {
		return dErrors.New(dErrors.CodeInvalidInput, "file number is required")
	}
	return validateIdentity(q.DateOfBirth, q.FirstName, q.LastName)
}

func validateIdentity(dob time.Time, firstName, lastName string) error {
	switch {
	case dob.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth is required")
	case isBlank(firstName):
		return dErrors.New(dErrors.CodeInvalidInput, "first name is required")
	case isBlank(lastName):
		return dErrors.New(dErrors.CodeInvalidInput, "last name is required")
	}
	return nil
}

// MatchResult classifies a search by how many records it matched.
type MatchResult string

const (
	MatchHit       MatchResult = "HIT"
	MatchMiss      MatchResult = "MISS"
	MatchNonUnique MatchResult = "NON_UNIQUE"
)

// ClassifyMatches maps a result-set size onto a MatchResult.
func ClassifyMatches(n int) MatchResult {
	switch {
	case n == 0:
		return MatchMiss
	case n == 1:
		return MatchHit
	default:
		return MatchNonUnique
	}
}

// MatchOutcome is the result of one search. Records holds every candidate,
// including all of them for a non-unique result.
type MatchOutcome struct {
	Result  MatchResult
	Records []*StatusRecord
}

// Record returns the single matched record for a hit, otherwise nil.
func (o MatchOutcome) Record() *StatusRecord {
	if o.Result != MatchHit || len(o.Records) == 0 {
		return nil
	}
	return o.Records[0]
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MatchField names an identifier column a Predicate may compare.
type MatchField string

const (
	MatchFieldEmail      MatchField = "email"
	MatchFieldFileNumber MatchField = "file_number"
)

// Predicate selects candidate records: exact calendar date of birth AND
// case-insensitive equality on every field in Equal.
type Predicate struct {
	DateOfBirth time.Time
	Equal       map[MatchField]string
}

// FieldValue returns r's value for f.
func (r *StatusRecord) FieldValue(f MatchField) (string, bool) {
	switch f {
	case MatchFieldEmail:
		return r.Email, true
	case MatchFieldFileNumber:
		return r.FileNumber, true
	default:
		return "", false
	}
}

// Matches evaluates the predicate in memory.
func (p Predicate) Matches(r *StatusRecord) bool {
	if !SameDate(p.DateOfBirth, r.DateOfBirth) {
		return false
	}
	for f, want := range p.Equal {
		got, ok := r.FieldValue(f)
		if !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}
