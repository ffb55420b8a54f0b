package attestation

import (
	"time"

	"github.com/Dosada05/handicap-system/models"
)

// Signals are the facts the trust heuristic counts.
type Signals struct {
	LocationVerified bool
	SameGroup        bool
	RespondedQuickly bool
	AccountVerified  bool
	Experienced      bool
}

func (s Signals) count() int {
	n := 0
	for _, ok := range []bool{s.LocationVerified, s.SameGroup, s.RespondedQuickly, s.AccountVerified, s.Experienced} {
		if ok {
			n++
		}
	}
	return n
}

// IsTrustworthy is advisory. It never gates verification.
func IsTrustworthy(s Signals, cfg Config) bool {
	return s.count() >= cfg.TrustSignals
}

// CollectSignals derives the signals for a responded attestation.
// attesterRound is the attester's own round on the same day, if any.
func CollectSignals(att *models.Attestation, round *models.Round, attester *models.Player, attesterRound *models.Round, cfg Config) Signals {
	s := Signals{LocationVerified: att.LocationVerified}
	if attester != nil {
		s.AccountVerified = attester.AccountVerified
		s.Experienced = attester.RoundsPlayed >= cfg.ExperiencedRounds
	}
	if attesterRound != nil && round != nil && attesterRound.CourseID == round.CourseID {
		s.SameGroup = absDuration(attesterRound.StartedAt.Sub(round.StartedAt)) <= cfg.SameGroupWindow
	}
	if att.AttestedAt != nil {
		s.RespondedQuickly = att.AttestedAt.Sub(att.RequestedAt) <= cfg.ResponseWindow
	}
	return s
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
