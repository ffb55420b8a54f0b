package handicap

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

type Stats struct {
	Rounds            int
	Trend             Trend
	Slope             float64
	StandardDeviation float64
	ConsistencyScore  float64
}

// Summarize describes the qualifying differentials for display.
func Summarize(rounds []RoundDifferential, now time.Time, cfg Config) Stats {
	q := Qualifying(rounds, now, false, cfg)

	// Qualifying is most-recent-first; regression runs oldest to newest.
	values := make([]float64, len(q))
	for i, r := range q {
		values[len(q)-1-i] = r.Differential.InexactFloat64()
	}

	stats := Stats{Rounds: len(values), Trend: TrendStable}
	if len(values) < 2 {
		return stats
	}

	stats.Slope = regressionSlope(values)
	switch {
	case stats.Slope < -cfg.TrendSlopeThreshold:
		stats.Trend = TrendImproving
	case stats.Slope > cfg.TrendSlopeThreshold:
		stats.Trend = TrendDeclining
	}

	stats.StandardDeviation = round1(stdDev(values))
	stats.ConsistencyScore = round1(math.Max(0, 100-10*stats.StandardDeviation))
	stats.Slope = math.Round(stats.Slope*1000) / 1000
	return stats
}

// PlayingHandicap is the course handicap for an index, floored at zero.
// A player without an index plays off zero.
func PlayingHandicap(index *decimal.Decimal, slope int) int {
	if index == nil {
		return 0
	}
	ch := CourseHandicap(*index, slope)
	if ch < 0 {
		return 0
	}
	return ch
}

func regressionSlope(values []float64) float64 {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func stdDev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
