package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore persists assessment sessions in PostgreSQL. Schema lives in
// migrations/ and is applied by cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSession(ctx context.Context, scores *SessionScores) error {
	insightsJSON, err := json.Marshal(scores.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	badgesJSON, err := json.Marshal(scores.Badges)
	if err != nil {
		return fmt.Errorf("marshal badges: %w", err)
	}
	decisionsJSON, err := json.Marshal(scores.Decisions)
	if err != nil {
		return fmt.Errorf("marshal decisions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessment_sessions
			(id, subject_id, risk_index, hesitation_score, consistency_score,
			 escalation_detected, insights, badges, decisions, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		scores.ID,
		scores.SubjectID,
		scores.RiskIndex,
		scores.HesitationScore,
		scores.ConsistencyScore,
		scores.EscalationDetected,
		insightsJSON,
		badgesJSON,
		decisionsJSON,
		scores.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*SessionScores, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, risk_index, hesitation_score, consistency_score,
		       escalation_detected, insights, badges, decisions, completed_at
		FROM assessment_sessions
		WHERE id = $1
	`, id)

	scores, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return scores, err
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*SessionScores, error) {
	// Most recent `limit` sessions, returned oldest first.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, risk_index, hesitation_score, consistency_score,
		       escalation_detected, insights, badges, decisions, completed_at
		FROM (
			SELECT * FROM assessment_sessions
			WHERE subject_id = $1
			ORDER BY completed_at DESC
			LIMIT $2
		) recent
		ORDER BY completed_at ASC
	`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*SessionScores
	for rows.Next() {
		scores, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, scores)
	}
	return result, rows.Err()
}

func (s *PostgresStore) AwardBadge(ctx context.Context, subjectID string, b Badge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessment_badges (subject_id, badge_id, name, description, tier)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject_id, badge_id) DO NOTHING
	`, subjectID, b.ID, b.Name, b.Description, string(b.Tier))
	if err != nil {
		return fmt.Errorf("award badge: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBadges(ctx context.Context, subjectID string) ([]Badge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT badge_id, name, description, tier
		FROM assessment_badges
		WHERE subject_id = $1
		ORDER BY awarded_at ASC
	`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Badge
	for rows.Next() {
		var b Badge
		var tier string
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &tier); err != nil {
			return nil, err
		}
		b.Tier = BadgeTier(tier)
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *PostgresStore) PutSignals(ctx context.Context, sig *SignalScores) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessment_signal_scores
			(session_id, impulsivity, patience, risk_escalation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			impulsivity = EXCLUDED.impulsivity,
			patience = EXCLUDED.patience,
			risk_escalation = EXCLUDED.risk_escalation
	`, sig.SessionID, sig.Impulsivity, sig.Patience, sig.RiskEscalation)
	if err != nil {
		return fmt.Errorf("upsert signal scores: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSignals(ctx context.Context, sessionID string) (*SignalScores, error) {
	var sig SignalScores
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, impulsivity, patience, risk_escalation
		FROM assessment_signal_scores
		WHERE session_id = $1
	`, sessionID).Scan(&sig.SessionID, &sig.Impulsivity, &sig.Patience, &sig.RiskEscalation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSignalsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get signal scores: %w", err)
	}
	return &sig, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*SessionScores, error) {
	var scores SessionScores
	var insightsJSON, badgesJSON, decisionsJSON []byte

	err := row.Scan(
		&scores.ID,
		&scores.SubjectID,
		&scores.RiskIndex,
		&scores.HesitationScore,
		&scores.ConsistencyScore,
		&scores.EscalationDetected,
		&insightsJSON,
		&badgesJSON,
		&decisionsJSON,
		&scores.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(insightsJSON, &scores.Insights); err != nil {
		return nil, fmt.Errorf("unmarshal insights: %w", err)
	}
	if err := json.Unmarshal(badgesJSON, &scores.Badges); err != nil {
		return nil, fmt.Errorf("unmarshal badges: %w", err)
	}
	if err := json.Unmarshal(decisionsJSON, &scores.Decisions); err != nil {
		return nil, fmt.Errorf("unmarshal decisions: %w", err)
	}
	return &scores, nil
}
