package assessment

import "time"

// Scoring thresholds.
const (
	longDecisionMS    = 15000 // a single decision slower than this counts as a long decision
	slowAverageMS     = 10000 // average latency above this adds a flat hesitation penalty
	quickAverageMS    = 3000  // average latency below this marks quick decisions
	hesitationWindow  = 6     // trailing comparisons examined for oscillation
	escalationMinRuns = 3     // strictly-increasing adjacent tier steps for escalation
)

// Analyzer converts one completed session's decision records into scores.
// The zero value uses the canonical formulas; WithLegacyScoring switches the
// hesitation/consistency/escalation computations to the legacy in-game
// formulas, which diverge materially (consistency penalizes every tier
// change, not just safe↔very_risky reversals). Only one set is ever
// persisted for a given deployment.
type Analyzer struct {
	legacy bool
}

// NewAnalyzer creates an analyzer using the canonical scoring formulas.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// WithLegacyScoring switches to the legacy in-game scoring variant.
func (a *Analyzer) WithLegacyScoring() *Analyzer {
	a.legacy = true
	return a
}

// Analyze computes the full score set for one completed session. Empty input
// is valid and yields the neutral defaults: risk 50, hesitation 0,
// consistency 100, no escalation, no insights.
func (a *Analyzer) Analyze(subjectID string, decisions []DecisionRecord) *SessionScores {
	escalation := a.DetectEscalation(decisions)
	return &SessionScores{
		SubjectID:          subjectID,
		RiskIndex:          a.RiskIndex(decisions),
		HesitationScore:    a.HesitationScore(decisions),
		ConsistencyScore:   a.ConsistencyScore(decisions),
		EscalationDetected: escalation,
		Insights:           GenerateInsights(decisions, escalation),
		Decisions:          decisions,
		CompletedAt:        time.Now().UTC(),
	}
}

// RiskIndex computes the behavioral risk index, 0-100, lower is better.
// 50 is the neutral baseline for zero decisions.
func (a *Analyzer) RiskIndex(decisions []DecisionRecord) int {
	safe, risky, veryRisky := tierCounts(decisions)
	return clamp(50-8*safe+3*risky+10*veryRisky, 0, 100)
}

// HesitationScore measures indecision: oscillation between options while
// comparing, plus slow decisions.
func (a *Analyzer) HesitationScore(decisions []DecisionRecord) int {
	if len(decisions) == 0 {
		return 0
	}

	events := hesitationEvents(decisions)
	avg := avgLatencyMS(decisions)

	slowBonus := 0
	if avg > slowAverageMS {
		slowBonus = 20
	}

	if a.legacy {
		return clamp(10*events+slowBonus, 0, 100)
	}

	long := 0
	for i := range decisions {
		if decisions[i].LatencyMS > longDecisionMS {
			long++
		}
	}
	return clamp(15*events+10*long+slowBonus, 0, 100)
}

// ConsistencyScore penalizes abrupt reversals in the tier sequence, starting
// from 100 with a floor of 0. Canonically only direct safe↔very_risky
// transitions cost points (15 each); the legacy variant charges 10 for any
// tier change.
func (a *Analyzer) ConsistencyScore(decisions []DecisionRecord) int {
	if len(decisions) < 2 {
		return 100
	}

	penalty := 0
	for i := 1; i < len(decisions); i++ {
		prev, cur := decisions[i-1].Tier, decisions[i].Tier
		if a.legacy {
			if prev != cur {
				penalty += 10
			}
			continue
		}
		if (prev == TierSafe && cur == TierVeryRisky) || (prev == TierVeryRisky && cur == TierSafe) {
			penalty += 15
		}
	}
	return clamp(100-penalty, 0, 100)
}

// DetectEscalation reports whether the session shows a risk-escalation
// pattern. Canonically: at least 3 strictly-increasing adjacent steps in the
// tier ordinal sequence. Legacy variant: very-risky choices outnumber half
// the decisions.
func (a *Analyzer) DetectEscalation(decisions []DecisionRecord) bool {
	if a.legacy {
		_, _, veryRisky := tierCounts(decisions)
		return veryRisky > len(decisions)/2
	}

	steps := 0
	for i := 1; i < len(decisions); i++ {
		if decisions[i].Tier.Ordinal() > decisions[i-1].Tier.Ordinal() {
			steps++
		}
	}
	return steps >= escalationMinRuns
}

// hesitationEvents folds each decision's comparison sequence: every append
// that grows the sequence past hesitationWindow elements checks the trailing
// window for oscillation between at least 2 distinct options.
func hesitationEvents(decisions []DecisionRecord) int {
	events := 0
	for i := range decisions {
		comparisons := decisions[i].Comparisons
		for n := hesitationWindow + 1; n <= len(comparisons); n++ {
			window := comparisons[n-hesitationWindow : n]
			if distinct(window) >= 2 {
				events++
			}
		}
	}
	return events
}

func distinct(options []int) int {
	seen := make(map[int]struct{}, len(options))
	for _, o := range options {
		seen[o] = struct{}{}
	}
	return len(seen)
}

func tierCounts(decisions []DecisionRecord) (safe, risky, veryRisky int) {
	for i := range decisions {
		switch decisions[i].Tier {
		case TierSafe:
			safe++
		case TierRisky:
			risky++
		case TierVeryRisky:
			veryRisky++
		}
	}
	return safe, risky, veryRisky
}

func avgLatencyMS(decisions []DecisionRecord) float64 {
	if len(decisions) == 0 {
		return 0
	}
	sum := 0
	for i := range decisions {
		sum += decisions[i].LatencyMS
	}
	return float64(sum) / float64(len(decisions))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
