package riskintel

import "math"

// Assessment-weight bonus thresholds per risk level.
const (
	criticalBonusThreshold = 20
	highBonusThreshold     = 15
	mediumBonusThreshold   = 10

	maxSuccessProbability = 98
)

// Recommend maps a reason stack to an intervention recommendation. It is a
// pure function of the stack: the same stack always yields the same
// recommendation, which keeps the audit trail reproducible.
//
// The final success probability is scaled by the stack's own confidence, so
// an uncertain classification can never produce an over-confident
// recommendation.
func Recommend(stack *ReasonStack) *Recommendation {
	rec := &Recommendation{
		SubjectID: stack.SubjectID,
		StackID:   stack.ID,
	}

	base := 0
	switch stack.RiskLevel {
	case RiskCritical:
		rec.Type = InterventionEscalation
		rec.Timing = TimingImmediate
		base = 78
		rec.Rationale = "Multiple high-risk indicators detected. Immediate senior staff intervention recommended."
		if stack.AssessmentWeightPercent > criticalBonusThreshold {
			rec.Rationale += " Behavioral assessment profile indicates high impulsivity requiring direct engagement."
			base += 5
		}
		rec.Alternatives = []Alternative{
			{Type: InterventionCoolingOff, Probability: 65, Rationale: "Mandatory 24-hour cooling-off period as alternative"},
		}

	case RiskHigh:
		rec.Type = InterventionCoolingOff
		rec.Timing = TimingImmediate
		base = 72
		rec.Rationale = "Loss-chasing and session escalation patterns detected. Cooling-off period recommended."
		if stack.AssessmentWeightPercent > highBonusThreshold {
			rec.Rationale += " Behavioral assessment supports temporary break to restore rational decision-making."
			base += 7
		}
		rec.Alternatives = []Alternative{
			{Type: InterventionLimit, Probability: 68, Rationale: "Set deposit and bet limits as alternative"},
			{Type: InterventionSoftMessage, Probability: 55, Rationale: "Send supportive message with self-assessment tools"},
		}

	case RiskMedium:
		rec.Type = InterventionSoftMessage
		rec.Timing = TimingDelayed
		base = 68
		rec.Rationale = "Emerging risk patterns detected. Soft intervention with self-reflection prompts recommended."
		if stack.AssessmentWeightPercent > mediumBonusThreshold {
			rec.Rationale += " Subject shows moderate impulsivity; educational content on decision patterns advised."
			base += 4
		}
		rec.Alternatives = []Alternative{
			{Type: InterventionMonitor, Probability: 60, Rationale: "Continue monitoring for 48 hours before action"},
		}

	default:
		rec.Type = InterventionMonitor
		rec.Timing = TimingScheduled
		base = 85
		rec.Rationale = "No immediate intervention required. Continue standard monitoring protocols."
	}

	scaled := float64(base) * float64(stack.Confidence) / 100
	rec.SuccessProbability = int(math.Round(math.Min(scaled, maxSuccessProbability)))

	return rec
}
