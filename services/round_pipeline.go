package services

import (
	"time"

	"github.com/Dosada05/handicap-system/attestation"
	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/fraud"
	"github.com/Dosada05/handicap-system/handicap"
	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
)

// roundSnapshot is everything the engine reads about a completed round.
// Round carries its hole scores and attestations.
type roundSnapshot struct {
	Round   *models.Round
	Course  *models.Course
	Player  *models.Player
	History fraud.PlayerHistory
}

type evaluation struct {
	Previous attestation.Decision
	Decision attestation.Decision
	Changed  bool
}

// evaluateCompletedRound runs differential, then fraud score, then status,
// writing the results onto s.Round.
func evaluateCompletedRound(s roundSnapshot, cfg config.EngineConfig) evaluation {
	r := s.Round
	prev := attestation.Current(r)

	if r.TotalStrokes == nil || *r.TotalStrokes <= 0 {
		if total := models.SumStrokes(r.HoleScores); total > 0 {
			r.TotalStrokes = &total
		}
	}
	r.LocationVerified = fraud.StartVerified(r, s.Course)

	r.ScoreDifferential = nil
	index := playerIndex(s.Player)
	if diff, ok := handicap.ScoreDifferential(r, s.Course, index, cfg.Handicap); ok {
		r.ScoreDifferential = &diff
	}

	res := fraud.Score(r, s.Course, s.History, cfg.Fraud)
	r.FraudRiskScore = res.Score
	r.FraudRiskFactors = models.FactorList(res.Factors)

	next := attestation.ComputeStatus(r.FraudRiskScore, r.Attestations, cfg.Attestation)
	attestation.Apply(r, next)

	return evaluation{Previous: prev, Decision: next, Changed: attestation.Transition(prev, next)}
}

// playerIndex is the index used to cap hole scores: provisional first.
func playerIndex(p *models.Player) *decimal.Decimal {
	if p == nil {
		return nil
	}
	if p.ProvisionalHandicapIndex != nil {
		return p.ProvisionalHandicapIndex
	}
	return p.VerifiedHandicapIndex
}

// buildHistory turns the player's other completed rounds into the fraud
// scorer's view. rounds must be most recent first.
func buildHistory(rounds []models.Round, exclude *models.Round, priorCount int, index *decimal.Decimal) fraud.PlayerHistory {
	h := fraud.PlayerHistory{TotalRounds: priorCount, HandicapIndex: index}
	for _, r := range rounds {
		if r.ID == exclude.ID || r.CompletedAt == nil {
			continue
		}
		if exclude.CompletedAt != nil && !r.CompletedAt.Before(*exclude.CompletedAt) {
			continue
		}
		total := 0
		if r.TotalStrokes != nil {
			total = *r.TotalStrokes
		}
		h.Rounds = append(h.Rounds, fraud.HistoricalRound{RoundID: r.ID, TotalStrokes: total, CompletedAt: *r.CompletedAt})
	}
	return h
}

func toDifferentials(rounds []models.Round) []handicap.RoundDifferential {
	out := make([]handicap.RoundDifferential, 0, len(rounds))
	for _, r := range rounds {
		if r.CompletedAt == nil {
			continue
		}
		out = append(out, handicap.RoundDifferential{
			RoundID:      r.ID,
			PlayedAt:     *r.CompletedAt,
			Differential: r.ScoreDifferential,
			Verified:     r.IsVerified,
		})
	}
	return out
}

// applyHandicap recomputes both cached indices and the round counters.
func applyHandicap(p *models.Player, rounds []models.Round, total, verified int, now time.Time, cfg handicap.Config) {
	diffs := toDifferentials(rounds)
	p.ProvisionalHandicapIndex = handicap.ProvisionalIndex(diffs, now, cfg)
	p.VerifiedHandicapIndex = handicap.VerifiedIndex(diffs, now, cfg)
	p.RoundsPlayed = total
	p.VerifiedRounds = verified
	updated := now
	p.HandicapUpdatedAt = &updated
}
