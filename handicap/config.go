// Package handicap computes score differentials and handicap indices.
//
// Every function here is pure: callers pass snapshots of rounds and courses
// and persist whatever comes back.
package handicap

import "github.com/shopspring/decimal"

// StandardSlope is the slope rating of a course of standard difficulty.
const StandardSlope = 113

// CountingStep averages the lowest Count differentials when at most
// MaxRounds rounds qualify.
type CountingStep struct {
	MaxRounds int
	Count     int
}

type Config struct {
	MinRounds  int
	MaxRounds  int
	WindowDays int
	// Ascending by MaxRounds.
	CountingTable []CountingStep

	Multiplier           decimal.Decimal
	ExceptionalMargin    decimal.Decimal
	ExceptionalMinCount  int
	ExceptionalReduction decimal.Decimal
	MinIndex             decimal.Decimal
	MaxIndex             decimal.Decimal

	// Net Double Bogey: par + NetDoubleBogeyOverPar + allotted strokes.
	NetDoubleBogeyOverPar int
	// Per-hole cap for players who have no index yet.
	NoIndexMaxOverPar int
	// Always zero; conditions are not modeled.
	PlayingConditionsAdjustment decimal.Decimal

	TrendSlopeThreshold float64
}

func DefaultConfig() Config {
	return Config{
		MinRounds:  5,
		MaxRounds:  20,
		WindowDays: 365,
		CountingTable: []CountingStep{
			{MaxRounds: 6, Count: 1},
			{MaxRounds: 8, Count: 2},
			{MaxRounds: 11, Count: 3},
			{MaxRounds: 14, Count: 4},
			{MaxRounds: 16, Count: 5},
			{MaxRounds: 18, Count: 6},
			{MaxRounds: 19, Count: 7},
			{MaxRounds: 20, Count: 8},
		},
		Multiplier:                  decimal.RequireFromString("0.96"),
		ExceptionalMargin:           decimal.NewFromInt(7),
		ExceptionalMinCount:         3,
		ExceptionalReduction:        decimal.NewFromInt(1),
		MinIndex:                    decimal.NewFromInt(-10),
		MaxIndex:                    decimal.NewFromInt(54),
		NetDoubleBogeyOverPar:       2,
		NoIndexMaxOverPar:           5,
		PlayingConditionsAdjustment: decimal.Zero,
		TrendSlopeThreshold:         0.5,
	}
}

// countingDifferentials maps the number of qualifying rounds to how many
// of the lowest differentials are averaged. Counts above the last step
// use the last step.
func countingDifferentials(rounds int, cfg Config) int {
	if rounds < cfg.MinRounds || rounds <= 0 || len(cfg.CountingTable) == 0 {
		return 0
	}
	k := cfg.CountingTable[len(cfg.CountingTable)-1].Count
	for _, step := range cfg.CountingTable {
		if rounds <= step.MaxRounds {
			k = step.Count
			break
		}
	}
	if k > rounds {
		k = rounds
	}
	return k
}
