package handicap

import (
	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
)

var standardSlope = decimal.NewFromInt(StandardSlope)

// CourseHandicap converts an index to strokes on a course of the given slope.
func CourseHandicap(index decimal.Decimal, slope int) int {
	if slope <= 0 {
		return 0
	}
	return int(index.Mul(decimal.NewFromInt(int64(slope))).Div(standardSlope).Round(0).IntPart())
}

// HandicapStrokes is the number of strokes a course handicap receives on a
// hole with the given stroke index.
func HandicapStrokes(courseHandicap, strokeIndex int) int {
	if strokeIndex <= 0 || courseHandicap < strokeIndex {
		return 0
	}
	return 1 + (courseHandicap-strokeIndex)/18
}

// maxHoleScore is the Net Double Bogey cap for one hole.
func maxHoleScore(hole *models.Hole, courseHandicap *int, cfg Config) int {
	if courseHandicap == nil {
		return hole.Par + cfg.NoIndexMaxOverPar
	}
	return hole.Par + cfg.NetDoubleBogeyOverPar + HandicapStrokes(*courseHandicap, hole.StrokeIndex)
}

// AdjustedGrossScore caps every usable hole at Net Double Bogey and sums them.
// Hole scores without strokes or without a matching course hole are skipped.
// When no hole is usable the round's total strokes are returned unmodified;
// the second result reports whether hole data was used.
func AdjustedGrossScore(round *models.Round, course *models.Course, index *decimal.Decimal, cfg Config) (int, bool) {
	var courseHandicap *int
	if index != nil {
		ch := CourseHandicap(*index, course.SlopeRating)
		courseHandicap = &ch
	}

	total, used := 0, 0
	for _, score := range round.HoleScores {
		if score.Strokes <= 0 {
			continue
		}
		hole := course.HoleByNumber(score.HoleNumber)
		if hole == nil || hole.Par <= 0 {
			continue
		}
		strokes := score.Strokes
		if limit := maxHoleScore(hole, courseHandicap, cfg); strokes > limit {
			strokes = limit
		}
		total += strokes
		used++
	}

	if used == 0 {
		if round.TotalStrokes == nil {
			return 0, false
		}
		return *round.TotalStrokes, false
	}
	return total, true
}

// ScoreDifferential computes (AGS - rating) * 113 / slope, rounded to one
// decimal. It reports false when the round is not completed or the total,
// rating or slope are missing.
func ScoreDifferential(round *models.Round, course *models.Course, index *decimal.Decimal, cfg Config) (decimal.Decimal, bool) {
	if round == nil || course == nil || !round.IsCompleted() {
		return decimal.Zero, false
	}
	if round.TotalStrokes == nil || *round.TotalStrokes <= 0 {
		return decimal.Zero, false
	}
	if course.CourseRating.IsZero() || course.SlopeRating <= 0 {
		return decimal.Zero, false
	}

	ags, _ := AdjustedGrossScore(round, course, index, cfg)
	diff := decimal.NewFromInt(int64(ags)).
		Sub(course.CourseRating).
		Sub(cfg.PlayingConditionsAdjustment).
		Mul(standardSlope).
		Div(decimal.NewFromInt(int64(course.SlopeRating)))

	return diff.Round(1), true
}
