package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"passport-status/internal/passportstatus/events"
	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/eventbus"
	"passport-status/pkg/platform/eventlog"
)

// EventLogConsumer appends every event to the audit log. Entries carry record
// ids and non-personal detail only.
type EventLogConsumer struct {
	store  eventlog.Store
	logger *slog.Logger
}

func NewEventLogConsumer(store eventlog.Store, logger *slog.Logger) *EventLogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogConsumer{store: store, logger: logger}
}

func (c *EventLogConsumer) Register(bus Subscriber) error {
	return bus.Subscribe("eventlog", c.Handle, events.AllKinds...)
}

func (c *EventLogConsumer) Handle(ctx context.Context, event eventbus.Event) error {
	env, ok := event.(events.Envelope)
	if !ok {
		return nil
	}
	entry, err := ToEntry(env)
	if err != nil {
		return err
	}
	if err := c.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append %s to event log: %w", entry.Kind, err)
	}
	return nil
}

// ToEntry converts an event into its audit log form.
func ToEntry(env events.Envelope) (eventlog.Entry, error) {
	meta := env.EventMeta()
	entry := eventlog.Entry{
		ID:         meta.ID,
		Kind:       string(env.EventKind()),
		OccurredAt: meta.Timestamp,
		RecordIDs:  env.RecordIDs(),
		RequestID:  meta.RequestID,
		Actor:      meta.Actor,
	}
	detail := detailFor(env)
	if len(detail) > 0 {
		raw, err := json.Marshal(detail)
		if err != nil {
			return eventlog.Entry{}, fmt.Errorf("marshal event detail: %w", err)
		}
		entry.Detail = raw
	}
	return entry, nil
}

func detailFor(env events.Envelope) map[string]any {
	switch e := env.(type) {
	case events.StatusRecordCreated:
		if e.Record != nil {
			return map[string]any{"status_code_id": e.Record.StatusCodeID}
		}
	case events.StatusRecordUpdated:
		return map[string]any{"changed_fields": changedFields(e.Before, e.After)}
	case events.SearchPerformed:
		return map[string]any{
			"query_kind":  e.QueryKind,
			"result":      e.Result,
			"match_count": len(e.MatchedIDs),
		}
	case events.NotificationNotSent:
		return map[string]any{"reason": e.Reason}
	}
	return nil
}

// changedFields names the fields that differ between before and after, not
// their values.
func changedFields(before, after *models.StatusRecord) []string {
	if before == nil || after == nil {
		return nil
	}
	changed := []string{}
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	add("date_of_birth", !models.SameDate(before.DateOfBirth, after.DateOfBirth))
	add("email", before.Email != after.Email)
	add("file_number", before.FileNumber != after.FileNumber)
	add("application_register_sid", before.ApplicationRegisterSID != after.ApplicationRegisterSID)
	add("first_name", before.FirstName != after.FirstName)
	add("last_name", before.LastName != after.LastName)
	add("status_code_id", before.StatusCodeID != after.StatusCodeID)
	add("status_date", !models.SameDate(before.StatusDate, after.StatusDate))
	return changed
}
