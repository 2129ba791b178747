package models

import (
	"time"

	dErrors "passport-status/pkg/domain-errors"
)

// StatusRecord is the current processing status of one passport application.
//
// Invariants:
//   - ID is assigned by the store on creation and never changes
//   - DateOfBirth, FirstName and LastName are always present
//   - Audit fields (CreatedBy/At, LastModifiedBy/At) are written only by the lifecycle service
type StatusRecord struct {
	ID                     string    `json:"id"`
	DateOfBirth            time.Time `json:"date_of_birth"`
	Email                  string    `json:"email,omitempty"`
	FileNumber             string    `json:"file_number,omitempty"`
	ApplicationRegisterSID string    `json:"application_register_sid,omitempty"`
	FirstName              string    `json:"first_name"`
	LastName               string    `json:"last_name"`
	StatusCodeID           string    `json:"status_code_id,omitempty"`
	StatusDate             time.Time `json:"status_date,omitempty"`

	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedBy string    `json:"last_modified_by"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// Clone returns an independent copy. Events carry clones so later writes to a
// stored record never alter an already-published snapshot.
func (r *StatusRecord) Clone() *StatusRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// ValidateForCreate checks the fields a new record must carry.
func (r *StatusRecord) ValidateForCreate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "status record is required")
	}
	if r.ID != "" {
		return dErrors.New(dErrors.CodeInvalidInput, "id must not be set when creating a status record")
	}
	return r.validateRequired()
}

func (r *StatusRecord) validateRequired() error {
	switch {
	case r.DateOfBirth.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth is required")
	case isBlank(r.FirstName):
		return dErrors.New(dErrors.CodeInvalidInput, "first name is required")
	case isBlank(r.LastName):
		return dErrors.New(dErrors.CodeInvalidInput, "last name is required")
	}
	return nil
}

// StampCreated sets all four audit fields for a new record.
func (r *StatusRecord) StampCreated(actor string, now time.Time) {
	r.CreatedBy = actor
	r.CreatedAt = now
	r.LastModifiedBy = actor
	r.LastModifiedAt = now
}

// StatusRecordPatch is a sparse update: nil fields keep their stored value.
// Identity and audit fields cannot be patched.
type StatusRecordPatch struct {
	ID                     string
	DateOfBirth            *time.Time
	Email                  *string
	FileNumber             *string
	ApplicationRegisterSID *string
	FirstName              *string
	LastName               *string
	StatusCodeID           *string
	StatusDate             *time.Time
}

// Validate rejects patches without a target id or that would blank a required field.
func (p StatusRecordPatch) Validate() error {
	if isBlank(p.ID) {
		return dErrors.New(dErrors.CodeInvalidInput, "id is required when updating a status record")
	}
	if p.DateOfBirth != nil && p.DateOfBirth.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "date of birth cannot be cleared")
	}
	if p.FirstName != nil && isBlank(*p.FirstName) {
		return dErrors.New(dErrors.CodeInvalidInput, "first name cannot be cleared")
	}
	if p.LastName != nil && isBlank(*p.LastName) {
		return dErrors.New(dErrors.CodeInvalidInput, "last name cannot be cleared")
	}
	return nil
}

// ApplyTo overwrites the fields set in the patch and stamps the modification.
func (p StatusRecordPatch) ApplyTo(r *StatusRecord, actor string, now time.Time) {
	if p.DateOfBirth != nil {
		r.DateOfBirth = DateOnly(*p.DateOfBirth)
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.FileNumber != nil {
		r.FileNumber = *p.FileNumber
	}
	if p.ApplicationRegisterSID != nil {
		r.ApplicationRegisterSID = *p.ApplicationRegisterSID
	}
	if p.FirstName != nil {
		r.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		r.LastName = *p.LastName
	}
	if p.StatusCodeID != nil {
		r.StatusCodeID = *p.StatusCodeID
	}
	if p.StatusDate != nil {
		r.StatusDate = DateOnly(*p.StatusDate)
	}
	r.LastModifiedBy = actor
	r.LastModifiedAt = now
}

// StatusCode is read-only reference data describing a processing status.
type StatusCode struct {
	ID           string `json:"id" yaml:"id"`
	Code         string `json:"code" yaml:"code"`
	BusinessCode string `json:"business_code" yaml:"business_code"`
	Description  string `json:"description" yaml:"description"`
}

// PageRequest selects a window of records in insertion order.
type PageRequest struct {
	Page int
	Size int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

// Normalized clamps page and size into usable bounds.
func (p PageRequest) Normalized() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of records preceding the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one window of records plus the total count.
type Page struct {
	Records []*StatusRecord `json:"records"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
	Total   int             `json:"total"`
}

// DateOnly truncates t to a calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports calendar-date equality.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
