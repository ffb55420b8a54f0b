package fraud

import (
	"testing"
	"time"

	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var teeOff = time.Date(2025, 7, 12, 7, 30, 0, 0, time.UTC)

func course(par, holes int) *models.Course {
	c := &models.Course{
		ID:                   1,
		Latitude:             36.5685,
		Longitude:            -121.9500,
		GeofenceRadiusMeters: 1000,
		CourseRating:         decimal.NewFromInt(72),
		SlopeRating:          113,
	}
	for n := 1; n <= holes; n++ {
		c.Holes = append(c.Holes, models.Hole{Number: n, Par: par, StrokeIndex: n})
	}
	return c
}

// roundOf builds a completed round that started on the first tee.
func roundOf(duration time.Duration, strokes ...int) *models.Round {
	lat, lon := 36.5690, -121.9505
	completed := teeOff.Add(duration)
	r := &models.Round{
		ID:             9,
		PlayerID:       4,
		StartedAt:      teeOff,
		CompletedAt:    &completed,
		StartLatitude:  &lat,
		StartLongitude: &lon,
	}
	total := 0
	for i, s := range strokes {
		r.HoleScores = append(r.HoleScores, models.HoleScore{HoleNumber: i + 1, Strokes: s})
		total += s
	}
	r.TotalStrokes = &total
	return r
}

func fill(n, value int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func veteran() PlayerHistory {
	h := PlayerHistory{TotalRounds: 40}
	for i := 0; i < 5; i++ {
		h.Rounds = append(h.Rounds, HistoricalRound{RoundID: i + 1, TotalStrokes: 54, CompletedAt: teeOff.AddDate(0, 0, -7*(i+1))})
	}
	return h
}

func TestTwoAcesOnParThreeCourse(t *testing.T) {
	strokes := append([]int{1, 1}, fill(16, 3)...)
	res := Score(roundOf(3*time.Hour, strokes...), course(3, 18), veteran(), DefaultConfig())

	assert.True(t, res.Score.GreaterThanOrEqual(decimal.NewFromInt(30)))
	assert.Contains(t, res.Factors, FactorMultipleAces)
	assert.Equal(t, []string{FactorMultipleAces}, res.Factors)
}

func TestSingleAceDoesNotFire(t *testing.T) {
	strokes := append([]int{1}, fill(17, 3)...)
	res := Score(roundOf(3*time.Hour, strokes...), course(3, 18), veteran(), DefaultConfig())
	assert.False(t, res.Has(FactorMultipleAces))
	assert.True(t, res.Score.IsZero())
}

func TestAcesOnUnknownHolesAreSkipped(t *testing.T) {
	r := roundOf(3*time.Hour, fill(18, 3)...)
	r.HoleScores = append(r.HoleScores,
		models.HoleScore{HoleNumber: 30, Strokes: 1},
		models.HoleScore{HoleNumber: 31, Strokes: 1},
	)
	res := Score(r, course(3, 18), veteran(), DefaultConfig())
	assert.False(t, res.Has(FactorMultipleAces))
}

func TestPar4Eagles(t *testing.T) {
	three := append([]int{2, 2, 2}, fill(15, 4)...)
	res := Score(roundOf(4*time.Hour, three...), course(4, 18), PlayerHistory{TotalRounds: 40}, DefaultConfig())
	assert.Equal(t, []string{FactorMultipleEaglesPar4}, res.Factors)
	assert.True(t, decimal.NewFromInt(25).Equal(res.Score))

	two := append([]int{2, 2}, fill(16, 4)...)
	res = Score(roundOf(4*time.Hour, two...), course(4, 18), PlayerHistory{TotalRounds: 40}, DefaultConfig())
	assert.False(t, res.Has(FactorMultipleEaglesPar4))
}

func TestScoreImprovement(t *testing.T) {
	h := PlayerHistory{TotalRounds: 30}
	for i := 0; i < 5; i++ {
		h.Rounds = append(h.Rounds, HistoricalRound{TotalStrokes: 95, CompletedAt: teeOff.AddDate(0, 0, -(i + 1))})
	}
	// Older than the last five, must not pull the average down.
	h.Rounds = append(h.Rounds, HistoricalRound{TotalStrokes: 60, CompletedAt: teeOff.AddDate(0, -3, 0)})

	r := roundOf(4 * time.Hour)
	total := 84
	r.TotalStrokes = &total
	assert.True(t, Score(r, course(4, 18), h, DefaultConfig()).Has(FactorScoreImprovement))

	total = 85
	assert.False(t, Score(r, course(4, 18), h, DefaultConfig()).Has(FactorScoreImprovement))

	assert.False(t, Score(r, course(4, 18), PlayerHistory{TotalRounds: 30}, DefaultConfig()).Has(FactorScoreImprovement),
		"no history, nothing to compare against")
}

func TestLocationAtStart(t *testing.T) {
	c := course(4, 18)
	cfg := DefaultConfig()

	inside := roundOf(4*time.Hour, fill(18, 5)...)
	assert.False(t, Score(inside, c, veteran(), cfg).Has(FactorLocationUnverifiedAtStart))

	outside := roundOf(4*time.Hour, fill(18, 5)...)
	lat := 36.70
	outside.StartLatitude = &lat
	res := Score(outside, c, veteran(), cfg)
	assert.Equal(t, []string{FactorLocationUnverifiedAtStart}, res.Factors)
	assert.True(t, decimal.NewFromInt(15).Equal(res.Score))

	noGPS := roundOf(4*time.Hour, fill(18, 5)...)
	noGPS.StartLatitude, noGPS.StartLongitude = nil, nil
	assert.True(t, Score(noGPS, c, veteran(), cfg).Has(FactorLocationUnverifiedAtStart))

	noGPS.LocationVerified = true
	assert.False(t, Score(noGPS, c, veteran(), cfg).Has(FactorLocationUnverifiedAtStart))
}

func TestDuration(t *testing.T) {
	c := course(4, 18)
	cfg := DefaultConfig()

	fastNine := Score(roundOf(110*time.Minute, fill(9, 5)...), c, veteran(), cfg)
	assert.True(t, fastNine.Has(FactorDurationTooFast))

	fastEight := Score(roundOf(60*time.Minute, fill(8, 5)...), c, veteran(), cfg)
	assert.False(t, fastEight.Has(FactorDurationTooFast), "fewer than nine holes is not a fast round")

	slow := Score(roundOf(8*time.Hour+30*time.Minute, fill(18, 5)...), c, veteran(), cfg)
	assert.Equal(t, []string{FactorDurationTooSlow}, slow.Factors)

	exactlyTwoHours := Score(roundOf(2*time.Hour, fill(18, 5)...), c, veteran(), cfg)
	assert.False(t, exactlyTwoHours.Has(FactorDurationTooFast))
}

func TestHistoricalExcellentInconsistent(t *testing.T) {
	hot := func(index string, rounds int) PlayerHistory {
		idx := decimal.RequireFromString(index)
		h := PlayerHistory{TotalRounds: 50, HandicapIndex: &idx}
		for i := 0; i < rounds; i++ {
			h.Rounds = append(h.Rounds, HistoricalRound{TotalStrokes: 72, CompletedAt: teeOff.AddDate(0, 0, -(i + 1))})
		}
		return h
	}
	r := roundOf(4*time.Hour, fill(18, 5)...)
	cfg := DefaultConfig()

	assert.True(t, Score(r, course(4, 18), hot("12.0", 6), cfg).Has(FactorHistoricalExcellentInconsistent))
	assert.False(t, Score(r, course(4, 18), hot("12.0", 5), cfg).Has(FactorHistoricalExcellentInconsistent))
	assert.False(t, Score(r, course(4, 18), hot("10.0", 6), cfg).Has(FactorHistoricalExcellentInconsistent))

	stale := hot("12.0", 6)
	stale.Rounds[0].CompletedAt = teeOff.AddDate(0, -2, 0)
	assert.False(t, Score(r, course(4, 18), stale, cfg).Has(FactorHistoricalExcellentInconsistent))
}

func TestNewUserExcellentScore(t *testing.T) {
	r := roundOf(4*time.Hour, fill(18, 4)...)
	res := Score(r, course(4, 18), PlayerHistory{TotalRounds: 2}, DefaultConfig())
	assert.Equal(t, []string{FactorNewUserExcellentScore}, res.Factors)

	res = Score(r, course(4, 18), PlayerHistory{TotalRounds: 5}, DefaultConfig())
	assert.Empty(t, res.Factors)
}

func TestScoreIsCapped(t *testing.T) {
	idx := decimal.NewFromInt(12)
	h := PlayerHistory{TotalRounds: 12, HandicapIndex: &idx}
	for i := 0; i < 6; i++ {
		h.Rounds = append(h.Rounds, HistoricalRound{TotalStrokes: 74, CompletedAt: teeOff.AddDate(0, 0, -(i + 1))})
	}
	r := roundOf(time.Hour, 1, 1, 2, 2, 2, 3, 3, 3, 3)
	lat := 40.0
	r.StartLatitude = &lat

	res := Score(r, course(4, 18), h, DefaultConfig())
	require.Equal(t, []string{
		FactorMultipleAces,
		FactorMultipleEaglesPar4,
		FactorScoreImprovement,
		FactorLocationUnverifiedAtStart,
		FactorDurationTooFast,
		FactorHistoricalExcellentInconsistent,
	}, res.Factors)
	assert.True(t, decimal.NewFromInt(100).Equal(res.Score))
}

func TestScoreNilRound(t *testing.T) {
	res := Score(nil, course(4, 18), PlayerHistory{}, DefaultConfig())
	assert.True(t, res.Score.IsZero())
	assert.Empty(t, res.Factors)
}

func TestWithCapKeepsBaseWeights(t *testing.T) {
	base := DefaultConfig()
	tuned := base.WithCap(decimal.NewFromInt(60))
	tuned.Weights[FactorMultipleAces] = decimal.NewFromInt(1)

	assert.True(t, decimal.NewFromInt(30).Equal(base.Weights[FactorMultipleAces]))
	assert.True(t, decimal.NewFromInt(100).Equal(base.Cap))
	assert.True(t, decimal.NewFromInt(60).Equal(tuned.Cap))
}
