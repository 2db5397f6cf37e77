package riskintel

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore persists reason stacks and recommendations in PostgreSQL.
// Schema lives in migrations/ and is applied by cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed risk-intelligence store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// SaveEvaluation writes the stack and recommendation in one transaction.
// A failed recommendation insert rolls the stack back and surfaces as
// ErrRecommendationWrite so the caller can retry the whole cycle.
func (s *PostgresStore) SaveEvaluation(ctx context.Context, stack *ReasonStack, rec *Recommendation) error {
	factorsJSON, err := json.Marshal(stack.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}
	t24, err := json.Marshal(stack.Triggers24h)
	if err != nil {
		return fmt.Errorf("marshal 24h triggers: %w", err)
	}
	t7, err := json.Marshal(stack.Triggers7d)
	if err != nil {
		return fmt.Errorf("marshal 7d triggers: %w", err)
	}
	t30, err := json.Marshal(stack.Triggers30d)
	if err != nil {
		return fmt.Errorf("marshal 30d triggers: %w", err)
	}
	altsJSON, err := json.Marshal(rec.Alternatives)
	if err != nil {
		return fmt.Errorf("marshal alternatives: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evaluation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sessionID sql.NullString
	if stack.SessionID != "" {
		sessionID = sql.NullString{String: stack.SessionID, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reason_stacks
			(id, subject_id, risk_level, confidence, factors,
			 triggers_24h, triggers_7d, triggers_30d, session_id,
			 assessment_weight_percent, live_activity_weight_percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		stack.ID,
		stack.SubjectID,
		string(stack.RiskLevel),
		stack.Confidence,
		factorsJSON,
		t24,
		t7,
		t30,
		sessionID,
		stack.AssessmentWeightPercent,
		stack.LiveActivityWeight,
		stack.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reason stack: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO intervention_recommendations
			(id, stack_id, subject_id, intervention_type, timing,
			 success_probability, rationale, alternatives, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.ID,
		rec.StackID,
		rec.SubjectID,
		string(rec.Type),
		string(rec.Timing),
		rec.SuccessProbability,
		rec.Rationale,
		altsJSON,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecommendationWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evaluation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetStack(ctx context.Context, id string) (*ReasonStack, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, risk_level, confidence, factors,
		       triggers_24h, triggers_7d, triggers_30d, session_id,
		       assessment_weight_percent, live_activity_weight_percent, created_at
		FROM reason_stacks
		WHERE id = $1
	`, id)

	stack, err := scanStack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStackNotFound
	}
	return stack, err
}

func (s *PostgresStore) GetRecommendation(ctx context.Context, stackID string) (*Recommendation, error) {
	var rec Recommendation
	var interventionType, timing string
	var altsJSON []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT id, stack_id, subject_id, intervention_type, timing,
		       success_probability, rationale, alternatives, created_at
		FROM intervention_recommendations
		WHERE stack_id = $1
	`, stackID).Scan(
		&rec.ID,
		&rec.StackID,
		&rec.SubjectID,
		&interventionType,
		&timing,
		&rec.SuccessProbability,
		&rec.Rationale,
		&altsJSON,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}

	rec.Type = InterventionType(interventionType)
	rec.Timing = Timing(timing)
	if err := json.Unmarshal(altsJSON, &rec.Alternatives); err != nil {
		return nil, fmt.Errorf("unmarshal alternatives: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) ListStacksBySubject(ctx context.Context, subjectID string, limit int) ([]*ReasonStack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, risk_level, confidence, factors,
		       triggers_24h, triggers_7d, triggers_30d, session_id,
		       assessment_weight_percent, live_activity_weight_percent, created_at
		FROM reason_stacks
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reason stacks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*ReasonStack
	for rows.Next() {
		stack, err := scanStack(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, stack)
	}
	return result, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStack(row scanner) (*ReasonStack, error) {
	var stack ReasonStack
	var riskLevel string
	var sessionID sql.NullString
	var factorsJSON, t24, t7, t30 []byte

	err := row.Scan(
		&stack.ID,
		&stack.SubjectID,
		&riskLevel,
		&stack.Confidence,
		&factorsJSON,
		&t24,
		&t7,
		&t30,
		&sessionID,
		&stack.AssessmentWeightPercent,
		&stack.LiveActivityWeight,
		&stack.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	stack.RiskLevel = RiskLevel(riskLevel)
	stack.SessionID = sessionID.String
	if err := json.Unmarshal(factorsJSON, &stack.Factors); err != nil {
		return nil, fmt.Errorf("unmarshal factors: %w", err)
	}
	if err := json.Unmarshal(t24, &stack.Triggers24h); err != nil {
		return nil, fmt.Errorf("unmarshal 24h triggers: %w", err)
	}
	if err := json.Unmarshal(t7, &stack.Triggers7d); err != nil {
		return nil, fmt.Errorf("unmarshal 7d triggers: %w", err)
	}
	if err := json.Unmarshal(t30, &stack.Triggers30d); err != nil {
		return nil, fmt.Errorf("unmarshal 30d triggers: %w", err)
	}
	return &stack, nil
}
