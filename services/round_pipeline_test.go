package services

import (
	"testing"
	"time"

	"github.com/Dosada05/handicap-system/config"
	"github.com/Dosada05/handicap-system/fraud"
	"github.com/Dosada05/handicap-system/handicap"
	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var finished = time.Date(2025, 8, 2, 13, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func links(slope int) *models.Course {
	c := &models.Course{
		ID:                   4,
		Name:                 "Cypress Links",
		Latitude:             36.5685,
		Longitude:            -121.95,
		GeofenceRadiusMeters: 1000,
		CourseRating:         dec("72.0"),
		SlopeRating:          slope,
	}
	for i := 1; i <= 18; i++ {
		c.Holes = append(c.Holes, models.Hole{CourseID: 4, Number: i, Par: 4, StrokeIndex: i})
	}
	return c
}

// fourHourRound is 18 pars of four, started on the first tee.
func fourHourRound(duration time.Duration) *models.Round {
	r := &models.Round{
		ID:             77,
		PlayerID:       5,
		CourseID:       4,
		StartedAt:      finished.Add(-duration),
		CompletedAt:    ptr(finished),
		StartLatitude:  ptr(36.5686),
		StartLongitude: ptr(-121.9501),
		IsProvisional:  true,
	}
	for i := 1; i <= 18; i++ {
		r.HoleScores = append(r.HoleScores, models.HoleScore{RoundID: 77, HoleNumber: i, Strokes: 4})
	}
	return r
}

func approval() models.Attestation {
	at := finished.Add(time.Hour)
	return models.Attestation{RoundID: 77, AttesterID: 9, IsApproved: true, RequestedAt: finished, AttestedAt: &at}
}

func ninetyShooter() fraud.PlayerHistory {
	h := fraud.PlayerHistory{TotalRounds: 12}
	for i := 1; i <= 5; i++ {
		h.Rounds = append(h.Rounds, fraud.HistoricalRound{RoundID: i, TotalStrokes: 90, CompletedAt: finished.AddDate(0, 0, -7*i)})
	}
	return h
}

func TestEvaluateCompletedRound(t *testing.T) {
	round := fourHourRound(4 * time.Hour)
	round.Attestations = []models.Attestation{approval()}

	ev := evaluateCompletedRound(roundSnapshot{
		Round:   round,
		Course:  links(113),
		Player:  &models.Player{ID: 5},
		History: ninetyShooter(),
	}, config.DefaultEngineConfig())

	require.NotNil(t, round.TotalStrokes)
	assert.Equal(t, 72, *round.TotalStrokes)
	assert.True(t, round.LocationVerified)
	require.NotNil(t, round.ScoreDifferential)
	assert.True(t, dec("0").Equal(*round.ScoreDifferential), "got %s", round.ScoreDifferential)

	assert.True(t, dec("20").Equal(round.FraudRiskScore), "got %s", round.FraudRiskScore)
	assert.Equal(t, models.FactorList{fraud.FactorScoreImprovement}, round.FraudRiskFactors)

	assert.True(t, round.IsVerified)
	assert.False(t, round.IsProvisional)
	assert.Equal(t, 1, round.VerificationCount)
	assert.Equal(t, models.VerificationProvisional, ev.Previous.Status)
	assert.Equal(t, models.VerificationVerified, ev.Decision.Status)
	assert.True(t, ev.Changed)
}

func TestEvaluateRevertsVerifiedRound(t *testing.T) {
	round := fourHourRound(90 * time.Minute)
	round.StartLatitude = ptr(37.5)
	round.IsVerified = true
	round.IsProvisional = false
	round.VerificationCount = 1
	round.LocationVerified = true
	round.Attestations = []models.Attestation{approval()}

	ev := evaluateCompletedRound(roundSnapshot{
		Round:   round,
		Course:  links(113),
		Player:  &models.Player{ID: 5},
		History: ninetyShooter(),
	}, config.DefaultEngineConfig())

	assert.False(t, round.LocationVerified)
	assert.True(t, dec("60").Equal(round.FraudRiskScore), "got %s", round.FraudRiskScore)
	assert.Equal(t, models.FactorList{
		fraud.FactorScoreImprovement,
		fraud.FactorLocationUnverifiedAtStart,
		fraud.FactorDurationTooFast,
	}, round.FraudRiskFactors)

	assert.False(t, round.IsVerified)
	assert.True(t, round.IsProvisional)
	assert.Equal(t, 1, round.VerificationCount)
	assert.True(t, ev.Changed)
}

func TestEvaluateWithoutRatingsLeavesDifferentialEmpty(t *testing.T) {
	round := fourHourRound(4 * time.Hour)
	round.ScoreDifferential = ptr(dec("3.0"))
	course := links(113)
	course.SlopeRating = 0

	ev := evaluateCompletedRound(roundSnapshot{Round: round, Course: course, Player: &models.Player{ID: 5}}, config.DefaultEngineConfig())

	assert.Nil(t, round.ScoreDifferential)
	assert.False(t, ev.Changed)
	assert.True(t, round.IsProvisional)
}

func TestPlayerIndexPrefersProvisional(t *testing.T) {
	assert.Nil(t, playerIndex(nil))
	assert.Nil(t, playerIndex(&models.Player{}))

	p := &models.Player{VerifiedHandicapIndex: ptr(dec("12.1"))}
	assert.True(t, dec("12.1").Equal(*playerIndex(p)))

	p.ProvisionalHandicapIndex = ptr(dec("10.4"))
	assert.True(t, dec("10.4").Equal(*playerIndex(p)))
}

func TestBuildHistory(t *testing.T) {
	current := fourHourRound(4 * time.Hour)
	rounds := []models.Round{
		{ID: 80, CompletedAt: ptr(finished.Add(48 * time.Hour)), TotalStrokes: ptr(70)},
		{ID: 77, CompletedAt: ptr(finished), TotalStrokes: ptr(72)},
		{ID: 60, CompletedAt: ptr(finished.AddDate(0, 0, -3)), TotalStrokes: ptr(88)},
		{ID: 55},
		{ID: 50, CompletedAt: ptr(finished.AddDate(0, 0, -9))},
	}

	h := buildHistory(rounds, current, 7, ptr(dec("14.2")))

	assert.Equal(t, 7, h.TotalRounds)
	assert.True(t, dec("14.2").Equal(*h.HandicapIndex))
	require.Len(t, h.Rounds, 2)
	assert.Equal(t, 60, h.Rounds[0].RoundID)
	assert.Equal(t, 88, h.Rounds[0].TotalStrokes)
	assert.Equal(t, 50, h.Rounds[1].RoundID)
	assert.Equal(t, 0, h.Rounds[1].TotalStrokes)
}

func differentialRounds() []models.Round {
	values := []string{"4.0", "10.0", "12.0", "14.0", "16.0", "18.0"}
	rounds := make([]models.Round, len(values))
	for i, v := range values {
		rounds[i] = models.Round{
			ID:                i + 1,
			CompletedAt:       ptr(finished.AddDate(0, 0, -(i + 1))),
			ScoreDifferential: ptr(dec(v)),
			IsVerified:        i > 0,
		}
	}
	return append(rounds, models.Round{ID: 99})
}

func TestApplyHandicap(t *testing.T) {
	p := &models.Player{ID: 5}
	applyHandicap(p, differentialRounds(), 6, 5, finished, handicap.DefaultConfig())

	require.NotNil(t, p.ProvisionalHandicapIndex)
	require.NotNil(t, p.VerifiedHandicapIndex)
	assert.True(t, dec("3.8").Equal(*p.ProvisionalHandicapIndex), "got %s", p.ProvisionalHandicapIndex)
	assert.True(t, dec("9.6").Equal(*p.VerifiedHandicapIndex), "got %s", p.VerifiedHandicapIndex)
	assert.Equal(t, 6, p.RoundsPlayed)
	assert.Equal(t, 5, p.VerifiedRounds)
	require.NotNil(t, p.HandicapUpdatedAt)
	assert.Equal(t, finished, *p.HandicapUpdatedAt)
}

func TestApplyHandicapBelowMinimum(t *testing.T) {
	p := &models.Player{ID: 5, ProvisionalHandicapIndex: ptr(dec("8.0"))}
	applyHandicap(p, differentialRounds()[:3], 3, 2, finished, handicap.DefaultConfig())

	assert.Nil(t, p.ProvisionalHandicapIndex)
	assert.Nil(t, p.VerifiedHandicapIndex)
}

func TestBuildSummary(t *testing.T) {
	p := &models.Player{
		ID:                       5,
		ProvisionalHandicapIndex: ptr(dec("3.8")),
		VerifiedHandicapIndex:    ptr(dec("9.6")),
		RoundsPlayed:             6,
		VerifiedRounds:           5,
	}

	s := buildSummary(p, differentialRounds(), links(130), finished, handicap.DefaultConfig())

	assert.Equal(t, 5, s.PlayerID)
	assert.Equal(t, []string{"4.0", "10.0", "12.0", "14.0", "16.0", "18.0"}, s.RecentDifferentials)
	assert.Equal(t, string(handicap.TrendImproving), s.Trend)
	require.NotNil(t, s.CourseID)
	assert.Equal(t, 4, *s.CourseID)
	require.NotNil(t, s.CourseHandicap)
	assert.Equal(t, 11, *s.CourseHandicap)
	require.NotNil(t, s.PlayingHandicap)
	assert.Equal(t, 11, *s.PlayingHandicap)
}

func TestBuildSummaryWithoutIndex(t *testing.T) {
	s := buildSummary(&models.Player{ID: 8}, nil, links(113), finished, handicap.DefaultConfig())

	assert.Empty(t, s.RecentDifferentials)
	assert.NotNil(t, s.RecentDifferentials)
	assert.Equal(t, string(handicap.TrendStable), s.Trend)
	assert.Nil(t, s.CourseHandicap)
	require.NotNil(t, s.PlayingHandicap)
	assert.Equal(t, 0, *s.PlayingHandicap)
}
