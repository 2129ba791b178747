package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"passport-status/pkg/platform/eventlog"
)

// Store implements eventlog.Store on the status_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts entry. Re-appending the same entry id is ignored.
func (s *Store) Append(ctx context.Context, entry eventlog.Entry) error {
	detail := []byte(entry.Detail)
	if len(detail) == 0 {
		detail = []byte("{}")
	}
	recordIDs := entry.RecordIDs
	if recordIDs == nil {
		recordIDs = []string{}
	}

	query := `
		INSERT INTO status_events (id, kind, occurred_at, record_ids, request_id, actor, detail)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Kind,
		entry.OccurredAt,
		pq.Array(recordIDs),
		entry.RequestID,
		entry.Actor,
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert status event: %w", err)
	}
	return nil
}

const entryColumns = `id, kind, occurred_at, record_ids, COALESCE(request_id, ''), COALESCE(actor, ''), detail`

// ListByRecord returns the entries referencing recordID, oldest first.
func (s *Store) ListByRecord(ctx context.Context, recordID string) ([]eventlog.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM status_events WHERE $1 = ANY(record_ids) ORDER BY occurred_at ASC`
	rows, err := s.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("query status events: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListRecent returns up to limit entries, most recent first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]eventlog.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM status_events ORDER BY occurred_at DESC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query status events: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]eventlog.Entry, error) {
	var entries []eventlog.Entry
	for rows.Next() {
		var (
			e         eventlog.Entry
			recordIDs pq.StringArray
			detail    []byte
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.OccurredAt, &recordIDs, &e.RequestID, &e.Actor, &detail); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		e.RecordIDs = []string(recordIDs)
		e.Detail = detail
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status events: %w", err)
	}
	return entries, nil
}
