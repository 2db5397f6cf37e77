package activity

import (
	"math"
	"time"
)

// Trailing window durations used across the risk layer.
const (
	Window24h = 24 * time.Hour
	Window7d  = 7 * 24 * time.Hour
	Window30d = 30 * 24 * time.Hour
)

// Windows holds one subject's records sliced into the trailing windows,
// each ordered oldest first. Last30d is the superset the others are cut
// from, so a single 30-day fetch materializes all three.
type Windows struct {
	Last24h []*Record
	Last7d  []*Record
	Last30d []*Record
}

// Slice cuts a 30-day record fetch (oldest first) into trailing windows
// relative to now.
func Slice(records []*Record, now time.Time) *Windows {
	w := &Windows{Last30d: records}
	cut24h := now.Add(-Window24h)
	cut7d := now.Add(-Window7d)

	for _, r := range records {
		if !r.Timestamp.Before(cut7d) {
			w.Last7d = append(w.Last7d, r)
		}
		if !r.Timestamp.Before(cut24h) {
			w.Last24h = append(w.Last24h, r)
		}
	}
	return w
}

// Stakes extracts the stake amounts of a window, preserving order.
func Stakes(records []*Record) []float64 {
	stakes := make([]float64, len(records))
	for i, r := range records {
		stakes[i] = r.Stake
	}
	return stakes
}

// TotalStake sums stake amounts over a window.
func TotalStake(records []*Record) float64 {
	var total float64
	for _, r := range records {
		total += r.Stake
	}
	return total
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// CoefficientOfVariation returns 100·stddev/mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return 100 * StdDev(values) / mean
}
