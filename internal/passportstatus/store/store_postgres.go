package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/sentinel"
)

// PostgresStore persists status records in the passport_statuses table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const recordColumns = `id, date_of_birth, COALESCE(email, ''), COALESCE(file_number, ''),
	COALESCE(application_register_sid, ''), first_name, last_name, COALESCE(status_code_id, ''),
	status_date, created_by, created_at, last_modified_by, last_modified_at`

// matchColumns whitelists the identifier columns a Predicate may compare.
var matchColumns = map[models.MatchField]string{
	models.MatchFieldEmail:      "email",
	models.MatchFieldFileNumber: "file_number",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.StatusRecord, error) {
	var (
		r          models.StatusRecord
		statusDate *time.Time
	)
	err := row.Scan(
		&r.ID, &r.DateOfBirth, &r.Email, &r.FileNumber,
		&r.ApplicationRegisterSID, &r.FirstName, &r.LastName, &r.StatusCodeID,
		&statusDate, &r.CreatedBy, &r.CreatedAt, &r.LastModifiedBy, &r.LastModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	if statusDate != nil {
		r.StatusDate = models.DateOnly(*statusDate)
	}
	r.DateOfBirth = models.DateOnly(r.DateOfBirth)
	r.CreatedAt = r.CreatedAt.UTC()
	r.LastModifiedAt = r.LastModifiedAt.UTC()
	return &r, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return models.DateOnly(t)
}

func (s *PostgresStore) Create(ctx context.Context, record *models.StatusRecord) (*models.StatusRecord, error) {
	query := `
		INSERT INTO passport_statuses (
			id, date_of_birth, email, file_number, application_register_sid, first_name, last_name,
			status_code_id, status_date, created_by, created_at, last_modified_by, last_modified_at
		)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13)
		RETURNING ` + recordColumns

	row := s.pool.QueryRow(ctx, query,
		uuid.NewString(), models.DateOnly(record.DateOfBirth), record.Email, record.FileNumber,
		record.ApplicationRegisterSID, record.FirstName, record.LastName, record.StatusCodeID,
		nullableDate(record.StatusDate), record.CreatedBy, record.CreatedAt,
		record.LastModifiedBy, record.LastModifiedAt,
	)
	created, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("insert status record: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.StatusRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM passport_statuses WHERE id = $1`
	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find status record: %w", err)
	}
	return r, nil
}

// Update locks the row with SELECT ... FOR UPDATE, applies mutate and writes
// the result in the same transaction.
func (s *PostgresStore) Update(ctx context.Context, id string, mutate func(*models.StatusRecord) error) (before, after *models.StatusRecord, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `SELECT ` + recordColumns + ` FROM passport_statuses WHERE id = $1 FOR UPDATE`
	before, err = scanRecord(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock status record: %w", err)
	}

	after = before.Clone()
	if err := mutate(after); err != nil {
		return nil, nil, err
	}

	update := `
		UPDATE passport_statuses SET
			date_of_birth = $2, email = NULLIF($3, ''), file_number = NULLIF($4, ''),
			application_register_sid = NULLIF($5, ''), first_name = $6, last_name = $7,
			status_code_id = NULLIF($8, ''), status_date = $9,
			last_modified_by = $10, last_modified_at = $11
		WHERE id = $1`
	tag, err := tx.Exec(ctx, update,
		id, models.DateOnly(after.DateOfBirth), after.Email, after.FileNumber,
		after.ApplicationRegisterSID, after.FirstName, after.LastName,
		after.StatusCodeID, nullableDate(after.StatusDate),
		after.LastModifiedBy, after.LastModifiedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update status record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, sentinel.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit update: %w", err)
	}
	after.ID = id
	return before, after, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (*models.StatusRecord, error) {
	query := `DELETE FROM passport_statuses WHERE id = $1 RETURNING ` + recordColumns
	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete status record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]*models.StatusRecord, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM passport_statuses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count status records: %w", err)
	}
	if limit <= 0 || offset >= total {
		return []*models.StatusRecord{}, total, nil
	}

	query := `SELECT ` + recordColumns + ` FROM passport_statuses ORDER BY seq LIMIT $1 OFFSET $2`
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list status records: %w", err)
	}
	records, err := collect(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list status records: %w", err)
	}
	return records, total, nil
}

// FindMatching compares date_of_birth exactly and each identifier column
// case-insensitively. Name comparison is left to the caller.
func (s *PostgresStore) FindMatching(ctx context.Context, p models.Predicate) ([]*models.StatusRecord, error) {
	query, args, err := buildMatchQuery(p)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("match status records: %w", err)
	}
	records, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("match status records: %w", err)
	}
	return records, nil
}

func buildMatchQuery(p models.Predicate) (string, []any, error) {
	fields := make([]models.MatchField, 0, len(p.Equal))
	for f := range p.Equal {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var b strings.Builder
	b.WriteString(`SELECT ` + recordColumns + ` FROM passport_statuses WHERE date_of_birth = $1`)
	args := []any{models.DateOnly(p.DateOfBirth)}
	for _, f := range fields {
		col, ok := matchColumns[f]
		if !ok {
			return "", nil, fmt.Errorf("unsupported match field %q", f)
		}
		args = append(args, p.Equal[f])
		fmt.Fprintf(&b, ` AND lower(%s) = lower($%d)`, col, len(args))
	}
	b.WriteString(` ORDER BY seq`)
	return b.String(), args, nil
}

func collect(rows pgx.Rows) ([]*models.StatusRecord, error) {
	defer rows.Close()
	var out []*models.StatusRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
