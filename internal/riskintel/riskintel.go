// Package riskintel builds explainable reason stacks and intervention
// recommendations.
//
// A reason stack is a weighted, normalized list of contributing factors
// justifying a risk classification. It combines live wagering-activity
// signals with an optional behavioral-assessment signal triple. Each stack
// drives exactly one intervention recommendation; the pair is persisted
// atomically and never edited afterward, so the audit trail stays intact
// across evaluation cycles.
package riskintel

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrStackNotFound = errors.New("reason stack not found")
	ErrNoStack       = errors.New("no reason stack for subject")
	// ErrRecommendationWrite signals that the stack was written but the
	// recommendation was not. The caller may retry the evaluation; readers
	// never see the orphaned stack.
	ErrRecommendationWrite = errors.New("recommendation write failed")
)

// FactorSource identifies where a contributing factor came from.
type FactorSource string

const (
	SourceLiveActivity FactorSource = "live_activity"
	SourceAssessment   FactorSource = "assessment"
)

// Trend direction of a contributing factor's underlying signal.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// ContributingFactor is one weighted signal in a reason stack. Weights are
// mutable only during the single normalization pass.
type ContributingFactor struct {
	Factor        string       `json:"factor"`
	WeightPercent int          `json:"weightPercent"`
	Source        FactorSource `json:"source"`
	TimeWindow    string       `json:"timeWindow,omitempty"`
	Trend         Trend        `json:"trend,omitempty"`
}

// RiskLevel is the ordinal classification of a reason stack.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Ordinal maps risk levels onto 0..3 for comparison.
func (l RiskLevel) Ordinal() int {
	switch l {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return 0
	}
}

// Trigger is one raised behavioral trigger within a time window.
type Trigger struct {
	Type        string `json:"type"`
	Count       int    `json:"count,omitempty"`
	Ratio       string `json:"ratio,omitempty"`
	Coefficient string `json:"coefficient,omitempty"`
}

// ReasonStack is the explainable output of one risk-evaluation cycle.
//
// Invariant: AssessmentWeightPercent + LiveActivityWeightPercent equals the
// sum of all factor weights, and that sum is at most 100 after
// normalization.
type ReasonStack struct {
	ID                      string               `json:"id"`
	SubjectID               string               `json:"subjectId"`
	RiskLevel               RiskLevel            `json:"riskLevel"`
	Confidence              int                  `json:"confidence"` // 0-100
	Factors                 []ContributingFactor `json:"factors"`
	Triggers24h             []Trigger            `json:"triggers24h,omitempty"`
	Triggers7d              []Trigger            `json:"triggers7d,omitempty"`
	Triggers30d             []Trigger            `json:"triggers30d,omitempty"`
	SessionID               string               `json:"sessionId,omitempty"`
	AssessmentWeightPercent int                  `json:"assessmentWeightPercent"`
	LiveActivityWeight      int                  `json:"liveActivityWeightPercent"`
	CreatedAt               time.Time            `json:"createdAt"`
}

// InterventionType is the recommended intervention.
type InterventionType string

const (
	InterventionSoftMessage InterventionType = "soft_message"
	InterventionCoolingOff  InterventionType = "cooling_off"
	InterventionLimit       InterventionType = "limit"
	InterventionEscalation  InterventionType = "escalation"
	InterventionMonitor     InterventionType = "monitor"
)

// Timing of a recommended intervention.
type Timing string

const (
	TimingImmediate Timing = "immediate"
	TimingDelayed   Timing = "delayed"
	TimingScheduled Timing = "scheduled"
	TimingMonitor   Timing = "monitor"
)

// Alternative is a lower-ranked intervention option.
type Alternative struct {
	Type        InterventionType `json:"type"`
	Probability int              `json:"probability"`
	Rationale   string           `json:"rationale"`
}

// Recommendation is the intervention derived from one reason stack. Created
// once per stack and never mutated; a new evaluation cycle produces a new
// stack and a new recommendation.
type Recommendation struct {
	ID                 string           `json:"id"`
	StackID            string           `json:"stackId"`
	SubjectID          string           `json:"subjectId"`
	Type               InterventionType `json:"type"`
	Timing             Timing           `json:"timing"`
	SuccessProbability int              `json:"successProbability"` // 0-98
	Rationale          string           `json:"rationale"`
	Alternatives       []Alternative    `json:"alternatives,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

// Store persists reason stacks and their recommendations.
type Store interface {
	// SaveEvaluation writes a stack and its recommendation atomically.
	// If the recommendation cannot be written the stack must not become
	// visible either; implementations return ErrRecommendationWrite when
	// the second write is the one that failed.
	SaveEvaluation(ctx context.Context, stack *ReasonStack, rec *Recommendation) error

	GetStack(ctx context.Context, id string) (*ReasonStack, error)
	GetRecommendation(ctx context.Context, stackID string) (*Recommendation, error)
	// ListStacksBySubject returns a subject's stacks newest first, capped
	// at limit.
	ListStacksBySubject(ctx context.Context, subjectID string, limit int) ([]*ReasonStack, error)
}

// EvaluateRequest is the request body for POST /v1/subjects/:id/evaluate.
type EvaluateRequest struct {
	// SessionID optionally links a completed assessment session whose
	// signal scores should feed the stack.
	SessionID string `json:"sessionId,omitempty"`
}
