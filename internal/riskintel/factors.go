package riskintel

import (
	"fmt"
	"math"

	"github.com/safeplay/guardian/internal/activity"
	"github.com/safeplay/guardian/internal/assessment"
)

// Live-activity factor thresholds.
const (
	lossChaseMultiplier  = 1.5
	lossChaseUnitWeight  = 8
	lossChaseMaxWeight   = 40
	escalationWeight     = 27
	escalationRatio      = 2.0
	volatilityWeight     = 14
	volatilityMinSamples = 5
	volatilityThreshold  = 50.0
)

// Assessment factor thresholds.
const (
	impulsivityThreshold = 70.0
	patienceThreshold    = 40.0
	riskEscThreshold     = 65.0
	riskEscWeight        = 16
)

// Classification ladder.
const (
	criticalTopWeight = 35
	criticalFactors   = 4
	highTopWeight     = 25
	highFactors       = 3
	mediumTopWeight   = 15
	mediumFactors     = 2

	baseConfidence        = 75
	assessmentBoost       = 8
	maxConfidence         = 98
	assessmentOnlyCeiling = 60
)

// Generator derives a reason stack from live-activity windows and an
// optional assessment signal triple. It is a pure computation; all I/O
// happens in the service before Generate runs.
type Generator struct{}

// NewGenerator creates a reason-stack generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate evaluates the factor rules, normalizes weights, and classifies
// overall risk. A nil signals argument means no assessment data was
// available; empty windows are valid and yield a low-risk, factorless
// stack.
func (g *Generator) Generate(subjectID string, windows *activity.Windows, signals *assessment.SignalScores, sessionID string) *ReasonStack {
	if windows == nil {
		windows = &activity.Windows{}
	}
	stack := &ReasonStack{
		SubjectID: subjectID,
		SessionID: sessionID,
	}

	g.liveActivityFactors(stack, windows)
	g.assessmentFactors(stack, signals)

	normalizeWeights(stack.Factors)

	for _, f := range stack.Factors {
		switch f.Source {
		case SourceAssessment:
			stack.AssessmentWeightPercent += f.WeightPercent
		case SourceLiveActivity:
			stack.LiveActivityWeight += f.WeightPercent
		}
	}

	stack.RiskLevel, stack.Confidence = classify(stack.Factors)
	if stack.AssessmentWeightPercent > 0 {
		stack.Confidence = min(stack.Confidence+assessmentBoost, maxConfidence)
	}

	// Assessment signals with no live activity at all cannot support a
	// confident classification; flag it and cap the confidence.
	if signals != nil && len(windows.Last30d) == 0 {
		stack.Triggers24h = append(stack.Triggers24h, Trigger{Type: "live_data_missing"})
		if stack.Confidence > assessmentOnlyCeiling {
			stack.Confidence = assessmentOnlyCeiling
		}
	}

	return stack
}

func (g *Generator) liveActivityFactors(stack *ReasonStack, windows *activity.Windows) {
	// Loss chasing: a loss followed by a stake more than 1.5x higher,
	// counted over adjacent pairs in the trailing 24h, oldest first.
	lossChasing := 0
	for i := 1; i < len(windows.Last24h); i++ {
		prev, cur := windows.Last24h[i-1], windows.Last24h[i]
		if prev.Result == activity.ResultLoss && cur.Stake > prev.Stake*lossChaseMultiplier {
			lossChasing++
		}
	}
	if lossChasing > 0 {
		stack.Factors = append(stack.Factors, ContributingFactor{
			Factor:        "Loss-chasing behavior detected",
			WeightPercent: min(lossChasing*lossChaseUnitWeight, lossChaseMaxWeight),
			Source:        SourceLiveActivity,
			TimeWindow:    "24h",
			Trend:         TrendIncreasing,
		})
		stack.Triggers24h = append(stack.Triggers24h, Trigger{Type: "loss_chasing", Count: lossChasing})
	}

	// Session escalation: 24h total stake versus the 7d per-record average.
	totalStake24h := activity.TotalStake(windows.Last24h)
	avgStake7d := activity.Mean(activity.Stakes(windows.Last7d))
	if totalStake24h > avgStake7d*escalationRatio {
		stack.Factors = append(stack.Factors, ContributingFactor{
			Factor:        "Session escalation above baseline",
			WeightPercent: escalationWeight,
			Source:        SourceLiveActivity,
			TimeWindow:    "24h vs 7d",
			Trend:         TrendIncreasing,
		})
		ratio := "inf"
		if avgStake7d > 0 {
			ratio = fmt.Sprintf("%.2f", totalStake24h/avgStake7d)
		}
		stack.Triggers24h = append(stack.Triggers24h, Trigger{Type: "session_escalation", Ratio: ratio})
	}

	// Spend volatility over the trailing 7d, if enough samples exist.
	stakes := activity.Stakes(windows.Last7d)
	if len(stakes) > volatilityMinSamples {
		if cv := activity.CoefficientOfVariation(stakes); cv > volatilityThreshold {
			stack.Factors = append(stack.Factors, ContributingFactor{
				Factor:        "High spend volatility",
				WeightPercent: volatilityWeight,
				Source:        SourceLiveActivity,
				TimeWindow:    "7d",
				Trend:         TrendIncreasing,
			})
			stack.Triggers7d = append(stack.Triggers7d, Trigger{Type: "spend_volatility", Coefficient: fmt.Sprintf("%.1f", cv)})
		}
	}
}

func (g *Generator) assessmentFactors(stack *ReasonStack, signals *assessment.SignalScores) {
	if signals == nil {
		return
	}

	if signals.Impulsivity > impulsivityThreshold {
		stack.Factors = append(stack.Factors, ContributingFactor{
			Factor:        "High impulsivity index",
			WeightPercent: int(math.Round(signals.Impulsivity / 100 * 25)),
			Source:        SourceAssessment,
			TimeWindow:    "assessment",
			Trend:         TrendStable,
		})
	}
	if signals.Patience < patienceThreshold {
		stack.Factors = append(stack.Factors, ContributingFactor{
			Factor:        "Low patience under pressure",
			WeightPercent: int(math.Round((100 - signals.Patience) / 100 * 18)),
			Source:        SourceAssessment,
			TimeWindow:    "assessment",
			Trend:         TrendStable,
		})
	}
	if signals.RiskEscalation > riskEscThreshold {
		stack.Factors = append(stack.Factors, ContributingFactor{
			Factor:        "Risk escalation tendency",
			WeightPercent: riskEscWeight,
			Source:        SourceAssessment,
			TimeWindow:    "assessment",
			Trend:         TrendStable,
		})
	}
}

// normalizeWeights scales factor weights so they sum to exactly 100
// whenever the raw sum exceeds 100. Raw weights are computed first, then
// scaled once; per-factor rounding drift is corrected by handing the
// leftover points to the factors with the largest remainders, so the result
// is reproducible regardless of evaluation order.
func normalizeWeights(factors []ContributingFactor) {
	total := 0
	for _, f := range factors {
		total += f.WeightPercent
	}
	if total <= 100 {
		return
	}

	scaled := make([]int, len(factors))
	remainders := make([]int, len(factors))
	sum := 0
	for i, f := range factors {
		scaled[i] = f.WeightPercent * 100 / total
		remainders[i] = f.WeightPercent * 100 % total
		sum += scaled[i]
	}

	for leftover := 100 - sum; leftover > 0; leftover-- {
		best := 0
		for i, r := range remainders {
			if r > remainders[best] {
				best = i
			}
		}
		scaled[best]++
		remainders[best] = -1
	}

	for i := range factors {
		factors[i].WeightPercent = scaled[i]
	}
}

// classify determines the risk level and base confidence from the largest
// factor weight and the factor count. The level is non-decreasing in both.
func classify(factors []ContributingFactor) (RiskLevel, int) {
	topWeight := 0
	for _, f := range factors {
		if f.WeightPercent > topWeight {
			topWeight = f.WeightPercent
		}
	}
	count := len(factors)

	switch {
	case topWeight >= criticalTopWeight || count >= criticalFactors:
		return RiskCritical, 92
	case topWeight >= highTopWeight || count >= highFactors:
		return RiskHigh, 85
	case topWeight >= mediumTopWeight || count >= mediumFactors:
		return RiskMedium, 78
	default:
		return RiskLow, baseConfidence
	}
}
