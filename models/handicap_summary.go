package models

import "github.com/shopspring/decimal"

type HandicapSummary struct {
	PlayerID                 int              `json:"player_id"`
	ProvisionalHandicapIndex *decimal.Decimal `json:"provisional_handicap_index"`
	VerifiedHandicapIndex    *decimal.Decimal `json:"verified_handicap_index"`
	RoundsPlayed             int              `json:"rounds_played"`
	VerifiedRounds           int              `json:"verified_rounds"`
	Trend                    string           `json:"trend"`
	StandardDeviation        float64          `json:"standard_deviation"`
	ConsistencyScore         float64          `json:"consistency_score"`
	RecentDifferentials      []string         `json:"recent_differentials"`
	CourseID                 *int             `json:"course_id,omitempty"`
	CourseHandicap           *int             `json:"course_handicap,omitempty"`
	PlayingHandicap          *int             `json:"playing_handicap,omitempty"`
}
