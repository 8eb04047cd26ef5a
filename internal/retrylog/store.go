package retrylog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"captionsync/internal/retry"
)

// Store is a SQLite-backed retry.Sink.
type Store struct {
	db   *sql.DB
	path string
}

var _ retry.Sink = (*Store)(nil)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const recordColumns = "run_id, operation, status, attempt, retry_count, reason, error_message, started_at, finished_at, execution_ms"

// Open creates or connects to the retry database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("retry database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure retry db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts one record.
func (s *Store) Append(ctx context.Context, rec retry.Record) error {
	ctx = ensureContext(ctx)
	query := "INSERT INTO retry_records (" + recordColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query,
			nullableString(rec.RunID),
			rec.Operation,
			string(rec.Status),
			rec.Attempt,
			rec.RetryCount,
			nullableString(string(rec.Reason)),
			nullableString(rec.Error),
			formatTime(rec.StartedAt),
			formatTime(rec.FinishedAt),
			rec.ExecutionTime.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert retry record: %w", err)
		}
		return nil
	})
}

// Filter narrows Records. Zero values match everything.
type Filter struct {
	RunID     string
	Operation string
	Status    retry.Status
	Since     time.Time
	Limit     int
}

// Records returns matching records oldest first.
func (s *Store) Records(ctx context.Context, filter Filter) ([]retry.Record, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Operation != "" {
		clauses = append(clauses, "operation = ?")
		args = append(args, filter.Operation)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "started_at >= ?")
		args = append(args, formatTime(filter.Since))
	}

	query := "SELECT " + recordColumns + " FROM retry_records"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query retry records: %w", err)
	}
	defer rows.Close()

	var records []retry.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retry records: %w", err)
	}
	return records, nil
}

// Statistics summarizes the matching records.
func (s *Store) Statistics(ctx context.Context, filter Filter) (retry.Statistics, error) {
	records, err := s.Records(ctx, filter)
	if err != nil {
		return retry.Statistics{}, err
	}
	return retry.Summarize(records), nil
}

// Prune deletes records that started before cutoff and reports how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM retry_records WHERE started_at < ?", formatTime(cutoff))
		if err != nil {
			return fmt.Errorf("prune retry records: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (retry.Record, error) {
	var (
		runID      sql.NullString
		operation  string
		status     string
		attempt    int
		retryCount int
		reason     sql.NullString
		errMsg     sql.NullString
		startedRaw string
		finishRaw  string
		execMS     int64
	)
	if err := scanner.Scan(&runID, &operation, &status, &attempt, &retryCount, &reason, &errMsg, &startedRaw, &finishRaw, &execMS); err != nil {
		return retry.Record{}, fmt.Errorf("scan retry record: %w", err)
	}
	return retry.Record{
		RunID:         runID.String,
		Operation:     operation,
		Status:        retry.Status(status),
		Attempt:       attempt,
		RetryCount:    retryCount,
		Reason:        retry.Reason(reason.String),
		Error:         errMsg.String,
		StartedAt:     parseTime(startedRaw),
		FinishedAt:    parseTime(finishRaw),
		ExecutionTime: time.Duration(execMS) * time.Millisecond,
	}, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		if err := retry.SleepWithContext(ctx, delay); err != nil {
			return err
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Unix(0, 0)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
