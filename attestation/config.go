// Package attestation decides a round's verification status from the
// peer attestations recorded against it.
package attestation

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// A round is verified only while its fraud score stays below this.
	FraudThreshold decimal.Decimal
	MinApprovals   int

	// Attesters are location verified within this multiple of the course radius.
	AttesterFenceFactor float64

	SameGroupWindow   time.Duration
	ResponseWindow    time.Duration
	ExperiencedRounds int
	TrustSignals      int
}

func DefaultConfig() Config {
	return Config{
		FraudThreshold:      decimal.NewFromInt(50),
		MinApprovals:        1,
		AttesterFenceFactor: 2,
		SameGroupWindow:     2 * time.Hour,
		ResponseWindow:      3 * time.Hour,
		ExperiencedRounds:   5,
		TrustSignals:        3,
	}
}

func (c Config) WithFraudThreshold(threshold decimal.Decimal) Config {
	c.FraudThreshold = threshold
	return c
}
