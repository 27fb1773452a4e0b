package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/authgate/pkg/observability"
)

const recordColumns = "email, subject_id, registration_step, created_at, updated_at"

// SQLStore implements Store on database/sql. Queries use $n placeholders,
// which both lib/pq and go-sqlite3 accept.
type SQLStore struct {
	db      *sql.DB
	metrics *observability.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// SQLStoreOption customizes a SQLStore
type SQLStoreOption func(*SQLStore)

// WithStoreMetrics records store operations in m
func WithStoreMetrics(m *observability.Metrics) SQLStoreOption {
	return func(s *SQLStore) {
		s.metrics = m
	}
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) SQLStoreOption {
	return func(s *SQLStore) {
		s.now = now
	}
}

// NewSQLStore creates a store on an open pool. The schema must already exist.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	s := &SQLStore{
		db:     db,
		tracer: observability.Tracer(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "users."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", "user_records"),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicate) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.RecordStoreOperation(operation, err, time.Since(start))
	return err
}

// FindByEmail returns the record for email, or nil, nil when absent
func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*Record, error) {
	var record *Record
	err := s.observe(ctx, "find_by_email", func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx,
			"SELECT "+recordColumns+" FROM user_records WHERE email = $1", email)

		r, err := scanRecord(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query user record: %w", err)
		}
		record = r
		return nil
	})
	return record, err
}

// Create inserts record, stamping CreatedAt/UpdatedAt
func (s *SQLStore) Create(ctx context.Context, record *Record) error {
	if record == nil || record.Email == "" {
		return fmt.Errorf("user record email is required")
	}
	if !record.RegistrationStep.Valid() {
		return fmt.Errorf("invalid registration step %q", record.RegistrationStep)
	}

	return s.observe(ctx, "create", func(ctx context.Context) error {
		now := s.now()
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO user_records ("+recordColumns+") VALUES ($1, $2, $3, $4, $5)",
			record.Email, record.SubjectID, string(record.RegistrationStep), now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to insert user record: %w", err)
		}
		record.CreatedAt = now
		record.UpdatedAt = now
		return nil
	})
}

// MarkConfirmed moves the record to DONE
func (s *SQLStore) MarkConfirmed(ctx context.Context, email string) error {
	return s.observe(ctx, "mark_confirmed", func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx,
			"UPDATE user_records SET registration_step = $1, updated_at = $2 WHERE email = $3",
			string(StepDone), s.now(), email)
		if err != nil {
			return fmt.Errorf("failed to update user record: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListPending returns pending records, oldest first
func (s *SQLStore) ListPending(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []*Record
	err := s.observe(ctx, "list_pending", func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+recordColumns+" FROM user_records WHERE registration_step = $1 ORDER BY created_at LIMIT $2",
			string(StepPendingConfirmation), limit)
		if err != nil {
			return fmt.Errorf("failed to list pending user records: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return fmt.Errorf("failed to scan user record: %w", err)
			}
			records = append(records, r)
		}
		return rows.Err()
	})
	return records, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r    Record
		step string
	)
	if err := row.Scan(&r.Email, &r.SubjectID, &step, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.RegistrationStep = RegistrationStep(step)
	return &r, nil
}

// isUniqueViolation detects primary key conflicts from either driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
