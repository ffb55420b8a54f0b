package fraud

import (
	"time"

	"github.com/Dosada05/handicap-system/geo"
	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
)

// HistoricalRound is one of the player's earlier completed rounds.
type HistoricalRound struct {
	RoundID      int
	TotalStrokes int
	CompletedAt  time.Time
}

// PlayerHistory is the snapshot of the player the scorer reads.
// Rounds are most recent first and exclude the round being scored.
type PlayerHistory struct {
	TotalRounds   int
	HandicapIndex *decimal.Decimal
	Rounds        []HistoricalRound
}

type Result struct {
	Score   decimal.Decimal `json:"score"`
	Factors []string        `json:"factors"`
}

func (r Result) Has(factor string) bool {
	for _, f := range r.Factors {
		if f == factor {
			return true
		}
	}
	return false
}

// Score evaluates every factor against the round and sums the weights of
// those that fire, capped at cfg.Cap. Factors come back in evaluation order.
func Score(round *models.Round, course *models.Course, history PlayerHistory, cfg Config) Result {
	res := Result{Score: decimal.Zero, Factors: []string{}}
	if round == nil {
		return res
	}

	checks := []struct {
		factor string
		fired  func() bool
	}{
		{FactorMultipleAces, func() bool { return countAces(round, course) > cfg.MaxAces }},
		{FactorMultipleEaglesPar4, func() bool { return countPar4Eagles(round, course) > cfg.MaxPar4Eagles }},
		{FactorScoreImprovement, func() bool { return suddenImprovement(round, history, cfg) }},
		{FactorLocationUnverifiedAtStart, func() bool { return !startVerified(round, course) }},
		{FactorDurationTooFast, func() bool { return tooFast(round, cfg) }},
		{FactorDurationTooSlow, func() bool { return round.Duration() > cfg.SlowRoundDuration }},
		{FactorHistoricalExcellentInconsistent, func() bool { return hotStreak(round, history, cfg) }},
		{FactorNewUserExcellentScore, func() bool { return newUserExcellent(round, history, cfg) }},
	}

	for _, c := range checks {
		if c.fired() {
			res.Factors = append(res.Factors, c.factor)
			res.Score = res.Score.Add(cfg.weight(c.factor))
		}
	}
	if res.Score.GreaterThan(cfg.Cap) {
		res.Score = cfg.Cap
	}
	return res
}

// StartVerified reports whether the tee-off position lies inside the
// course geofence. Rounds without a recorded position keep their flag.
func StartVerified(round *models.Round, course *models.Course) bool {
	return startVerified(round, course)
}

func startVerified(round *models.Round, course *models.Course) bool {
	start := geo.NewPoint(round.StartLatitude, round.StartLongitude)
	if start == nil || course == nil {
		return round.LocationVerified
	}
	fence := geo.Geofence{
		Center:       geo.Point{Latitude: course.Latitude, Longitude: course.Longitude},
		RadiusMeters: course.GeofenceRadiusMeters,
	}
	return fence.Contains(start, 1)
}

func holePar(course *models.Course, number int) int {
	if course == nil {
		return 0
	}
	if h := course.HoleByNumber(number); h != nil {
		return h.Par
	}
	return 0
}

func countAces(round *models.Round, course *models.Course) int {
	n := 0
	for _, s := range round.HoleScores {
		if s.Strokes == 1 && holePar(course, s.HoleNumber) > 1 {
			n++
		}
	}
	return n
}

func countPar4Eagles(round *models.Round, course *models.Course) int {
	n := 0
	for _, s := range round.HoleScores {
		if s.Strokes == 2 && holePar(course, s.HoleNumber) == 4 {
			n++
		}
	}
	return n
}

func holesCompleted(round *models.Round) int {
	n := 0
	for _, s := range round.HoleScores {
		if s.Strokes > 0 {
			n++
		}
	}
	return n
}

// totalStrokes prefers the reported total and falls back to the hole sum.
func totalStrokes(round *models.Round) int {
	if round.TotalStrokes != nil && *round.TotalStrokes > 0 {
		return *round.TotalStrokes
	}
	return models.SumStrokes(round.HoleScores)
}

func suddenImprovement(round *models.Round, history PlayerHistory, cfg Config) bool {
	total := totalStrokes(round)
	if total == 0 {
		return false
	}
	sum, n := 0, 0
	for _, h := range history.Rounds {
		if h.TotalStrokes <= 0 {
			continue
		}
		sum += h.TotalStrokes
		n++
		if n == cfg.ImprovementLookback {
			break
		}
	}
	if n == 0 {
		return false
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n)))
	return decimal.NewFromInt(int64(total)).LessThan(avg.Sub(cfg.ImprovementMargin))
}

func tooFast(round *models.Round, cfg Config) bool {
	if !round.IsCompleted() || holesCompleted(round) < cfg.FastRoundMinHoles {
		return false
	}
	return round.Duration() < cfg.FastRoundDuration
}

func hotStreak(round *models.Round, history PlayerHistory, cfg Config) bool {
	if history.HandicapIndex == nil || !history.HandicapIndex.GreaterThan(cfg.HotStreakMinIndex) {
		return false
	}
	ref := round.StartedAt
	if round.CompletedAt != nil {
		ref = *round.CompletedAt
	}
	since := ref.Add(-cfg.HotStreakWindow)

	n := 0
	for _, h := range history.Rounds {
		if h.TotalStrokes <= 0 || h.TotalStrokes >= cfg.HotStreakScore {
			continue
		}
		if h.CompletedAt.Before(since) || h.CompletedAt.After(ref) {
			continue
		}
		n++
	}
	return n > cfg.HotStreakMaxCount
}

func newUserExcellent(round *models.Round, history PlayerHistory, cfg Config) bool {
	total := totalStrokes(round)
	return total > 0 && history.TotalRounds < cfg.NewUserMaxRounds && total < cfg.NewUserScore
}
