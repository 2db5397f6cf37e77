package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists wagering activity in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed activity store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"activity_records", "id", "subject_id", "ts", "stake", "result",
	))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.SubjectID, r.Timestamp, r.Stake, string(r.Result)); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy record: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubjectSince(ctx context.Context, subjectID string, since time.Time) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, ts, stake, result
		FROM activity_records
		WHERE subject_id = $1 AND ts >= $2
		ORDER BY ts ASC
	`, subjectID, since)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Record
	for rows.Next() {
		var r Record
		var res string
		if err := rows.Scan(&r.ID, &r.SubjectID, &r.Timestamp, &r.Stake, &res); err != nil {
			return nil, err
		}
		r.Result = Result(res)
		result = append(result, &r)
	}
	return result, rows.Err()
}
