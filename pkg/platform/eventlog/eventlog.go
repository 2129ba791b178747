// Package eventlog is an append-only log of domain events, kept for audit.
package eventlog

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one logged event. Detail holds kind-specific, non-personal fields.
type Entry struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	OccurredAt time.Time       `json:"occurred_at"`
	RecordIDs  []string        `json:"record_ids"`
	RequestID  string          `json:"request_id,omitempty"`
	Actor      string          `json:"actor,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
}

// Store appends entries and lists them back by record.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByRecord(ctx context.Context, recordID string) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
