// Package fraud scores how suspicious a completed round looks.
//
// The scorer is a fixed-weight heuristic: each factor adds its weight
// independently and the total is capped.
package fraud

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FactorMultipleAces                    = "multiple_aces"
	FactorMultipleEaglesPar4              = "multiple_eagles_par4"
	FactorScoreImprovement                = "score_improvement"
	FactorLocationUnverifiedAtStart       = "location_unverified_at_start"
	FactorDurationTooFast                 = "duration_too_fast"
	FactorDurationTooSlow                 = "duration_too_slow"
	FactorHistoricalExcellentInconsistent = "historical_excellent_inconsistent"
	FactorNewUserExcellentScore           = "new_user_excellent_score"
)

// Factors lists every factor code in evaluation order.
var Factors = []string{
	FactorMultipleAces,
	FactorMultipleEaglesPar4,
	FactorScoreImprovement,
	FactorLocationUnverifiedAtStart,
	FactorDurationTooFast,
	FactorDurationTooSlow,
	FactorHistoricalExcellentInconsistent,
	FactorNewUserExcellentScore,
}

type Config struct {
	Weights map[string]decimal.Decimal
	Cap     decimal.Decimal

	// multiple_aces fires above this many aces.
	MaxAces int
	// multiple_eagles_par4 fires above this many par-4 eagles.
	MaxPar4Eagles int

	ImprovementLookback int
	ImprovementMargin   decimal.Decimal

	FastRoundMinHoles int
	FastRoundDuration time.Duration
	SlowRoundDuration time.Duration

	HotStreakWindow   time.Duration
	HotStreakScore    int
	HotStreakMaxCount int
	HotStreakMinIndex decimal.Decimal

	NewUserMaxRounds int
	NewUserScore     int
}

func DefaultConfig() Config {
	return Config{
		Weights: map[string]decimal.Decimal{
			FactorMultipleAces:                    decimal.NewFromInt(30),
			FactorMultipleEaglesPar4:              decimal.NewFromInt(25),
			FactorScoreImprovement:                decimal.NewFromInt(20),
			FactorLocationUnverifiedAtStart:       decimal.NewFromInt(15),
			FactorDurationTooFast:                 decimal.NewFromInt(25),
			FactorDurationTooSlow:                 decimal.NewFromInt(10),
			FactorHistoricalExcellentInconsistent: decimal.NewFromInt(20),
			FactorNewUserExcellentScore:           decimal.NewFromInt(15),
		},
		Cap:                 decimal.NewFromInt(100),
		MaxAces:             1,
		MaxPar4Eagles:       2,
		ImprovementLookback: 5,
		ImprovementMargin:   decimal.NewFromInt(10),
		FastRoundMinHoles:   9,
		FastRoundDuration:   2 * time.Hour,
		SlowRoundDuration:   8 * time.Hour,
		HotStreakWindow:     30 * 24 * time.Hour,
		HotStreakScore:      75,
		HotStreakMaxCount:   5,
		HotStreakMinIndex:   decimal.NewFromInt(10),
		NewUserMaxRounds:    5,
		NewUserScore:        80,
	}
}

// WithCap returns a copy of cfg with a different score ceiling. The copy
// owns its weights.
func (c Config) WithCap(limit decimal.Decimal) Config {
	weights := make(map[string]decimal.Decimal, len(c.Weights))
	for factor, w := range c.Weights {
		weights[factor] = w
	}
	c.Weights = weights
	c.Cap = limit
	return c
}

func (c Config) weight(factor string) decimal.Decimal {
	if w, ok := c.Weights[factor]; ok {
		return w
	}
	return decimal.Zero
}
