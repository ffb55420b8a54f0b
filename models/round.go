package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type VerificationStatus string

const (
	VerificationProvisional VerificationStatus = "provisional"
	VerificationVerified    VerificationStatus = "verified"
)

type Round struct {
	ID           int        `json:"id" db:"id"`
	PlayerID     int        `json:"player_id" db:"player_id"`
	CourseID     int        `json:"course_id" db:"course_id"`
	TeeColor     string     `json:"tee_color" db:"tee_color"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	TotalStrokes *int       `json:"total_strokes,omitempty" db:"total_strokes"`

	StartLatitude    *float64 `json:"start_latitude,omitempty" db:"start_latitude"`
	StartLongitude   *float64 `json:"start_longitude,omitempty" db:"start_longitude"`
	LocationVerified bool     `json:"location_verified" db:"location_verified"`

	ScoreDifferential *decimal.Decimal `json:"score_differential" db:"score_differential"`
	FraudRiskScore    decimal.Decimal  `json:"fraud_risk_score" db:"fraud_risk_score"`
	FraudRiskFactors  FactorList       `json:"fraud_risk_factors" db:"fraud_risk_factors"`

	IsVerified        bool `json:"is_verified" db:"is_verified"`
	IsProvisional     bool `json:"is_provisional" db:"is_provisional"`
	VerificationCount int  `json:"verification_count" db:"verification_count"`

	ScorecardKey *string   `json:"-" db:"scorecard_key"`
	ScorecardURL *string   `json:"scorecard_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	HoleScores   []HoleScore   `json:"hole_scores,omitempty" db:"-"`
	Attestations []Attestation `json:"attestations,omitempty" db:"-"`
}

func (r *Round) IsCompleted() bool {
	return r.CompletedAt != nil
}

func (r *Round) Status() VerificationStatus {
	if r.IsVerified {
		return VerificationVerified
	}
	return VerificationProvisional
}

// Duration is zero for rounds that are still in progress.
func (r *Round) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

type HoleScore struct {
	ID         int       `json:"id" db:"id"`
	RoundID    int       `json:"round_id" db:"round_id"`
	HoleNumber int       `json:"hole_number" db:"hole_number"`
	Strokes    int       `json:"strokes" db:"strokes"`
	Putts      *int      `json:"putts,omitempty" db:"putts"`
	FairwayHit *bool     `json:"fairway_hit,omitempty" db:"fairway_hit"`
	GreenInReg *bool     `json:"green_in_regulation,omitempty" db:"green_in_regulation"`
	Penalties  int       `json:"penalties" db:"penalties"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// SumStrokes totals the recorded strokes, ignoring entries without a positive count.
func SumStrokes(scores []HoleScore) int {
	total := 0
	for _, s := range scores {
		if s.Strokes > 0 {
			total += s.Strokes
		}
	}
	return total
}
