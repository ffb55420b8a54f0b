package handicap

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RoundDifferential is the slice of a completed round the aggregator needs.
type RoundDifferential struct {
	RoundID      int
	PlayedAt     time.Time
	Differential *decimal.Decimal
	Verified     bool
}

// Qualifying returns the differentials that count toward an index, most
// recent first: non-nil, within the window, verified when asked, capped at
// MaxRounds.
func Qualifying(rounds []RoundDifferential, now time.Time, verifiedOnly bool, cfg Config) []RoundDifferential {
	cutoff := now.AddDate(0, 0, -cfg.WindowDays)

	out := make([]RoundDifferential, 0, len(rounds))
	for _, r := range rounds {
		if r.Differential == nil {
			continue
		}
		if r.PlayedAt.Before(cutoff) || r.PlayedAt.After(now) {
			continue
		}
		if verifiedOnly && !r.Verified {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayedAt.After(out[j].PlayedAt)
	})
	if cfg.MaxRounds > 0 && len(out) > cfg.MaxRounds {
		out = out[:cfg.MaxRounds]
	}
	return out
}

// Index aggregates a player's history into a handicap index, or nil when
// fewer than MinRounds rounds qualify.
func Index(rounds []RoundDifferential, now time.Time, verifiedOnly bool, cfg Config) *decimal.Decimal {
	q := Qualifying(rounds, now, verifiedOnly, cfg)
	diffs := make([]decimal.Decimal, len(q))
	for i, r := range q {
		diffs[i] = *r.Differential
	}
	return IndexFromDifferentials(diffs, cfg)
}

func ProvisionalIndex(rounds []RoundDifferential, now time.Time, cfg Config) *decimal.Decimal {
	return Index(rounds, now, false, cfg)
}

func VerifiedIndex(rounds []RoundDifferential, now time.Time, cfg Config) *decimal.Decimal {
	return Index(rounds, now, true, cfg)
}

// IndexFromDifferentials runs the averaging on an already qualified set.
func IndexFromDifferentials(diffs []decimal.Decimal, cfg Config) *decimal.Decimal {
	if len(diffs) < cfg.MinRounds {
		return nil
	}

	sorted := make([]decimal.Decimal, len(diffs))
	copy(sorted, diffs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	k := countingDifferentials(len(sorted), cfg)
	if k == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, d := range sorted[:k] {
		sum = sum.Add(d)
	}
	result := sum.Div(decimal.NewFromInt(int64(k))).Mul(cfg.Multiplier)

	threshold := result.Sub(cfg.ExceptionalMargin)
	exceptional := 0
	for _, d := range sorted {
		if d.LessThanOrEqual(threshold) {
			exceptional++
		}
	}
	if exceptional >= cfg.ExceptionalMinCount {
		result = result.Sub(cfg.ExceptionalReduction)
	}

	if result.LessThan(cfg.MinIndex) {
		result = cfg.MinIndex
	}
	if result.GreaterThan(cfg.MaxIndex) {
		result = cfg.MaxIndex
	}
	result = result.Round(1)
	return &result
}
