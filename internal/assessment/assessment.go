// Package assessment implements the behavioral-assessment session analyzer.
//
// A completed mini-game session arrives as an ordered list of decision
// records. The analyzer folds them into a fixed set of scores (risk index,
// hesitation, consistency, escalation), a list of qualitative insights, and
// earned badges. All computations are deterministic and reproducible — the
// same decisions always produce the same scores, which is what makes the
// output auditable.
package assessment

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSignalsNotFound = errors.New("signal scores not found")
	ErrInvalidTier     = errors.New("unknown risk tier")
)

// RiskTier is the risk classification of a chosen option.
type RiskTier string

const (
	TierSafe      RiskTier = "safe"
	TierRisky     RiskTier = "risky"
	TierVeryRisky RiskTier = "very_risky"
)

// Ordinal maps tiers onto 0/1/2 for escalation detection.
func (t RiskTier) Ordinal() int {
	switch t {
	case TierRisky:
		return 1
	case TierVeryRisky:
		return 2
	default:
		return 0
	}
}

// Valid reports whether t is a known tier.
func (t RiskTier) Valid() bool {
	return t == TierSafe || t == TierRisky || t == TierVeryRisky
}

// Category is the behavioral scenario category of a decision.
type Category string

const (
	CategoryLossChasing      Category = "loss_chasing"
	CategoryWinningStreak    Category = "winning_streak"
	CategoryBudgetViolation  Category = "budget_violation"
	CategoryEmotionalPlay    Category = "emotional_play"
	CategoryRiskEscalation   Category = "risk_escalation"
	CategoryImpairedDecision Category = "impaired_decision"
	CategoryTimeManagement   Category = "time_management"
)

// DecisionRecord is one in-session choice. Records are immutable once made;
// the analyzer only ever reads them.
type DecisionRecord struct {
	ScenarioID int      `json:"scenarioId"`
	Category   Category `json:"category"`
	Tier       RiskTier `json:"tier"`
	Points     int      `json:"points"`
	LatencyMS  int      `json:"latencyMs"`

	// HoverDurations maps option index → total hover time in ms.
	HoverDurations map[int]int `json:"hoverDurations,omitempty"`

	// Comparisons is the ordered list of option indices the player looked at
	// before choosing. This replaces the UI's mutable comparison buffer with
	// an explicit value threaded through the record, so hesitation detection
	// is a pure fold over it.
	Comparisons []int `json:"comparisons,omitempty"`
}

// ComparisonCount returns how many option-to-option comparisons preceded
// the choice.
func (d *DecisionRecord) ComparisonCount() int { return len(d.Comparisons) }

// InsightType classifies a qualitative insight.
type InsightType string

const (
	InsightPattern        InsightType = "pattern"
	InsightTrigger        InsightType = "trigger"
	InsightRecommendation InsightType = "recommendation"
)

// Severity of an insight.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityConcern Severity = "concern"
)

// Insight is a qualitative finding derived from a session.
type Insight struct {
	Type           InsightType      `json:"type"`
	Category       string           `json:"category"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	Severity       Severity         `json:"severity"`
	Recommendation string           `json:"recommendation,omitempty"`
	Evidence       []DecisionRecord `json:"evidence,omitempty"`
}

// BadgeTier is the award tier of a badge.
type BadgeTier string

const (
	TierBronze   BadgeTier = "bronze"
	TierSilver   BadgeTier = "silver"
	TierGold     BadgeTier = "gold"
	TierPlatinum BadgeTier = "platinum"
)

// Badge is a positive-reinforcement award. Awarding is idempotent per
// subject+badge id and badges are never revoked.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tier        BadgeTier `json:"tier"`
}

// SessionScores is the full derived output of one completed session.
// Created once at completion from the complete decision sequence.
type SessionScores struct {
	ID                 string           `json:"id"`
	SubjectID          string           `json:"subjectId"`
	RiskIndex          int              `json:"riskIndex"` // 0-100, lower is better
	HesitationScore    int              `json:"hesitationScore"`
	ConsistencyScore   int              `json:"consistencyScore"`
	EscalationDetected bool             `json:"escalationDetected"`
	Insights           []Insight        `json:"insights"`
	Badges             []Badge          `json:"badges"`
	Decisions          []DecisionRecord `json:"decisions,omitempty"`
	CompletedAt        time.Time        `json:"completedAt"`
}

// BalanceScore is the inverse of the risk index (higher is better); used for
// badge rules and history trends.
func (s *SessionScores) BalanceScore() int { return 100 - s.RiskIndex }

// SignalScores is the impulsivity/patience/escalation triple produced by the
// external ML scorer for one completed session. The engine consumes it as an
// already-validated input; it never computes these itself.
type SignalScores struct {
	SessionID      string  `json:"sessionId"`
	Impulsivity    float64 `json:"impulsivity"`    // 0-100
	Patience       float64 `json:"patience"`       // 0-100
	RiskEscalation float64 `json:"riskEscalation"` // 0-100
}

// Store persists completed sessions, badges, and signal scores.
type Store interface {
	CreateSession(ctx context.Context, s *SessionScores) error
	GetSession(ctx context.Context, id string) (*SessionScores, error)
	// ListBySubject returns completed sessions ordered oldest-first,
	// capped at limit.
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]*SessionScores, error)

	// AwardBadge upserts a badge for a subject; re-awarding is a no-op.
	AwardBadge(ctx context.Context, subjectID string, b Badge) error
	ListBadges(ctx context.Context, subjectID string) ([]Badge, error)

	PutSignals(ctx context.Context, sig *SignalScores) error
	GetSignals(ctx context.Context, sessionID string) (*SignalScores, error)
}

// historyLimit caps how many prior sessions feed badge and trend evaluation.
const historyLimit = 10

// CompleteSessionRequest is the request body for POST /v1/sessions.
type CompleteSessionRequest struct {
	SubjectID string           `json:"subjectId" binding:"required"`
	Decisions []DecisionRecord `json:"decisions" binding:"required"`
}

// PutSignalsRequest is the request body for PUT /v1/sessions/:id/signals.
type PutSignalsRequest struct {
	Impulsivity    float64 `json:"impulsivity"`
	Patience       float64 `json:"patience"`
	RiskEscalation float64 `json:"riskEscalation"`
}
