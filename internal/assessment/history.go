package assessment

import "fmt"

// Trend describes the direction of a subject's balance score over time.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Comparison relates the current session to the subject's prior sessions.
type Comparison struct {
	Improvement float64 `json:"improvement"` // balance-score points vs prior average
	Trend       Trend   `json:"trend"`
	Message     string  `json:"message"`
}

// trendBand is the ± balance-score band treated as stable.
const trendBand = 10

// CompareToHistory computes the balance-score trend for the current session
// against the average of all supplied prior sessions.
func CompareToHistory(current *SessionScores, history []*SessionScores) *Comparison {
	if len(history) == 0 {
		return &Comparison{
			Trend:   TrendStable,
			Message: "This is your first session. Great job taking this step!",
		}
	}

	sum := 0
	for _, s := range history {
		sum += s.BalanceScore()
	}
	avgPrevious := float64(sum) / float64(len(history))
	improvement := float64(current.BalanceScore()) - avgPrevious

	c := &Comparison{Improvement: improvement}
	switch {
	case improvement > trendBand:
		c.Trend = TrendImproving
		c.Message = fmt.Sprintf("Excellent progress! Your balance score improved by %.0f points since your last sessions.", improvement)
	case improvement < -trendBand:
		c.Trend = TrendDeclining
		c.Message = fmt.Sprintf("Your balance score decreased by %.0f points. Consider reviewing the insights and resources provided.", -improvement)
	default:
		c.Trend = TrendStable
		c.Message = fmt.Sprintf("Your balance score is consistent with your previous sessions (%.0f/100).", avgPrevious)
	}
	return c
}
