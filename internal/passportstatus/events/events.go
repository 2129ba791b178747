// Package events defines what the status-record service publishes on the bus.
// Every event carries copies of the records it references, so it never changes
// after it is published.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/eventbus"
	"passport-status/pkg/requestcontext"
)

const (
	KindCreated               eventbus.Kind = "passport_status.created"
	KindRead                  eventbus.Kind = "passport_status.read"
	KindUpdated               eventbus.Kind = "passport_status.updated"
	KindDeleted               eventbus.Kind = "passport_status.deleted"
	KindSearchPerformed       eventbus.Kind = "passport_status.search_performed"
	KindNotificationRequested eventbus.Kind = "notification.requested"
	KindNotificationSent      eventbus.Kind = "notification.sent"
	KindNotificationNotSent   eventbus.Kind = "notification.not_sent"
)

// LifecycleKinds lists the kinds emitted for record operations.
var LifecycleKinds = []eventbus.Kind{KindCreated, KindRead, KindUpdated, KindDeleted}

// NotificationKinds lists the notification outcome kinds.
var NotificationKinds = []eventbus.Kind{KindNotificationRequested, KindNotificationSent, KindNotificationNotSent}

// AllKinds lists every kind defined here.
var AllKinds = append(append(append([]eventbus.Kind{}, LifecycleKinds...), KindSearchPerformed), NotificationKinds...)

// Meta is common to every event.
type Meta struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
}

// NewMeta stamps an event from the request context.
func NewMeta(ctx context.Context) Meta {
	return Meta{
		ID:        uuid.NewString(),
		Timestamp: requestcontext.Now(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Actor:     requestcontext.Actor(ctx),
	}
}

// Envelope exposes the fields every event shares, for sinks that handle any event.
type Envelope interface {
	eventbus.Event
	EventMeta() Meta
	// RecordIDs lists the status records the event refers to.
	RecordIDs() []string
}

type StatusRecordCreated struct {
	Meta
	Record *models.StatusRecord `json:"record"`
}

func (StatusRecordCreated) EventKind() eventbus.Kind { return KindCreated }
func (e StatusRecordCreated) EventMeta() Meta        { return e.Meta }
func (e StatusRecordCreated) RecordIDs() []string    { return idsOf(e.Record) }

type StatusRecordRead struct {
	Meta
	Record *models.StatusRecord `json:"record"`
}

func (StatusRecordRead) EventKind() eventbus.Kind { return KindRead }
func (e StatusRecordRead) EventMeta() Meta        { return e.Meta }
func (e StatusRecordRead) RecordIDs() []string    { return idsOf(e.Record) }

// StatusRecordUpdated carries the record as it was before and after the patch.
type StatusRecordUpdated struct {
	Meta
	Before *models.StatusRecord `json:"before"`
	After  *models.StatusRecord `json:"after"`
}

func (StatusRecordUpdated) EventKind() eventbus.Kind { return KindUpdated }
func (e StatusRecordUpdated) EventMeta() Meta        { return e.Meta }
func (e StatusRecordUpdated) RecordIDs() []string    { return idsOf(e.After) }

type StatusRecordDeleted struct {
	Meta
	Record *models.StatusRecord `json:"record"`
}

func (StatusRecordDeleted) EventKind() eventbus.Kind { return KindDeleted }
func (e StatusRecordDeleted) EventMeta() Meta        { return e.Meta }
func (e StatusRecordDeleted) RecordIDs() []string    { return idsOf(e.Record) }

// SearchPerformed is published once per search, whatever the outcome.
type SearchPerformed struct {
	Meta
	QueryKind  string             `json:"query_kind"`
	Result     models.MatchResult `json:"result"`
	MatchedIDs []string           `json:"matched_ids,omitempty"`
}

func (SearchPerformed) EventKind() eventbus.Kind { return KindSearchPerformed }
func (e SearchPerformed) EventMeta() Meta        { return e.Meta }
func (e SearchPerformed) RecordIDs() []string    { return e.MatchedIDs }

// NotificationRequested asks for the file number of Record to be sent to its email.
type NotificationRequested struct {
	Meta
	Record *models.StatusRecord `json:"record"`
}

func (NotificationRequested) EventKind() eventbus.Kind { return KindNotificationRequested }
func (e NotificationRequested) EventMeta() Meta        { return e.Meta }
func (e NotificationRequested) RecordIDs() []string    { return idsOf(e.Record) }

type NotificationSent struct {
	Meta
	RecordID string `json:"record_id"`
}

func (NotificationSent) EventKind() eventbus.Kind { return KindNotificationSent }
func (e NotificationSent) EventMeta() Meta        { return e.Meta }
func (e NotificationSent) RecordIDs() []string    { return []string{e.RecordID} }

// NotSent reasons.
const (
	ReasonDeliveryFailed = "delivery_failed"
	ReasonCircuitOpen    = "circuit_open"
	ReasonDuplicate      = "duplicate"
	ReasonNoEmail        = "no_email"
	ReasonNoFileNumber   = "no_file_number"
)

type NotificationNotSent struct {
	Meta
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

func (NotificationNotSent) EventKind() eventbus.Kind { return KindNotificationNotSent }
func (e NotificationNotSent) EventMeta() Meta        { return e.Meta }
func (e NotificationNotSent) RecordIDs() []string    { return []string{e.RecordID} }

func idsOf(r *models.StatusRecord) []string {
	if r == nil || r.ID == "" {
		return nil
	}
	return []string{r.ID}
}
