package handicap

import (
	"testing"
	"time"

	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func completedRound(total int, scores ...models.HoleScore) *models.Round {
	started := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	completed := started.Add(4 * time.Hour)
	return &models.Round{
		ID:           1,
		PlayerID:     7,
		StartedAt:    started,
		CompletedAt:  &completed,
		TotalStrokes: intPtr(total),
		HoleScores:   scores,
	}
}

// parFourCourse has 18 par-4 holes with stroke index equal to the hole number.
func parFourCourse(rating string, slope int) *models.Course {
	c := &models.Course{ID: 3, CourseRating: dec(rating), SlopeRating: slope}
	for n := 1; n <= 18; n++ {
		c.Holes = append(c.Holes, models.Hole{Number: n, Par: 4, StrokeIndex: n})
	}
	return c
}

func TestScoreDifferentialWithoutHoleData(t *testing.T) {
	cfg := DefaultConfig()
	round := completedRound(85)
	course := &models.Course{CourseRating: dec("72.0"), SlopeRating: 113}

	diff, ok := ScoreDifferential(round, course, nil, cfg)
	require.True(t, ok)
	assert.True(t, dec("13.0").Equal(diff), "got %s", diff)

	again, ok := ScoreDifferential(round, course, nil, cfg)
	require.True(t, ok)
	assert.True(t, diff.Equal(again), "repeat calls on an unchanged round agree")
}

func TestScoreDifferentialSlopeAdjusted(t *testing.T) {
	round := completedRound(90)
	course := &models.Course{CourseRating: dec("71.5"), SlopeRating: 130}

	diff, ok := ScoreDifferential(round, course, nil, DefaultConfig())
	require.True(t, ok)
	assert.True(t, dec("16.1").Equal(diff), "got %s", diff)
}

func TestScoreDifferentialAbsent(t *testing.T) {
	cfg := DefaultConfig()
	course := &models.Course{CourseRating: dec("72.0"), SlopeRating: 113}

	inProgress := completedRound(85)
	inProgress.CompletedAt = nil

	noTotal := completedRound(85)
	noTotal.TotalStrokes = nil

	tests := []struct {
		name   string
		round  *models.Round
		course *models.Course
	}{
		{"not completed", inProgress, course},
		{"missing total", noTotal, course},
		{"missing rating", completedRound(85), &models.Course{SlopeRating: 113}},
		{"missing slope", completedRound(85), &models.Course{CourseRating: dec("72.0")}},
		{"nil course", completedRound(85), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ScoreDifferential(tt.round, tt.course, nil, cfg)
			assert.False(t, ok)
		})
	}
}

func blowUpRound() *models.Round {
	scores := make([]models.HoleScore, 0, 18)
	for n := 1; n <= 18; n++ {
		strokes := 4
		switch n {
		case 1:
			strokes = 10
		case 18:
			strokes = 9
		}
		scores = append(scores, models.HoleScore{HoleNumber: n, Strokes: strokes})
	}
	return completedRound(83, scores...)
}

func TestNetDoubleBogeyCap(t *testing.T) {
	cfg := DefaultConfig()
	course := parFourCourse("72.0", 113)

	// Index 10 on slope 113 gives 10 strokes: SI 1 caps at 7, SI 18 at 6.
	ags, used := AdjustedGrossScore(blowUpRound(), course, decPtr("10.0"), cfg)
	assert.True(t, used)
	assert.Equal(t, 77, ags)

	diff, ok := ScoreDifferential(blowUpRound(), course, decPtr("10.0"), cfg)
	require.True(t, ok)
	assert.True(t, dec("5.0").Equal(diff), "got %s", diff)
}

func TestNetDoubleBogeyWithoutIndex(t *testing.T) {
	ags, used := AdjustedGrossScore(blowUpRound(), parFourCourse("72.0", 113), nil, DefaultConfig())
	assert.True(t, used)
	assert.Equal(t, 82, ags, "par + 5 per hole until an index exists")
}

func TestAdjustedGrossScoreSkipsMalformedHoles(t *testing.T) {
	round := completedRound(12,
		models.HoleScore{HoleNumber: 1, Strokes: 4},
		models.HoleScore{HoleNumber: 2, Strokes: 0},
		models.HoleScore{HoleNumber: 25, Strokes: 5},
		models.HoleScore{HoleNumber: 3, Strokes: 5},
	)
	ags, used := AdjustedGrossScore(round, parFourCourse("72.0", 113), decPtr("0"), DefaultConfig())
	assert.True(t, used)
	assert.Equal(t, 9, ags)

	onlyBroken := completedRound(88, models.HoleScore{HoleNumber: 40, Strokes: 3})
	ags, used = AdjustedGrossScore(onlyBroken, parFourCourse("72.0", 113), nil, DefaultConfig())
	assert.False(t, used)
	assert.Equal(t, 88, ags, "falls back to the reported total")
}

func TestHandicapStrokes(t *testing.T) {
	tests := []struct {
		courseHandicap, strokeIndex, want int
	}{
		{10, 1, 1},
		{10, 10, 1},
		{10, 11, 0},
		{20, 1, 2},
		{20, 2, 2},
		{20, 3, 1},
		{36, 18, 2},
		{-2, 1, 0},
		{0, 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HandicapStrokes(tt.courseHandicap, tt.strokeIndex), "CH %d SI %d", tt.courseHandicap, tt.strokeIndex)
	}
}

func TestCourseHandicap(t *testing.T) {
	assert.Equal(t, 14, CourseHandicap(dec("12.4"), 130))
	assert.Equal(t, 10, CourseHandicap(dec("10.0"), 113))
	assert.Equal(t, -3, CourseHandicap(dec("-2.8"), 113))
	assert.Equal(t, 0, CourseHandicap(dec("12.4"), 0))
}
