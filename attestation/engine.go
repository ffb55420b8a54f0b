package attestation

import (
	"errors"
	"time"

	"github.com/Dosada05/handicap-system/geo"
	"github.com/Dosada05/handicap-system/models"
	"github.com/shopspring/decimal"
)

type Reason string

const (
	ReasonSelfAttestation      Reason = "self_attestation"
	ReasonDuplicateAttestation Reason = "duplicate_attestation"
	ReasonRoundNotCompleted    Reason = "round_not_completed"
	ReasonAlreadyResponded     Reason = "already_responded"
)

// Rejection is returned for requests the engine refuses. Nothing is
// recorded when a request is rejected.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string {
	return "attestation rejected: " + string(r.Reason)
}

func reject(reason Reason) error {
	return &Rejection{Reason: reason}
}

// RejectionReason extracts the reason code from err, if it carries one.
func RejectionReason(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}

type Decision struct {
	Status        models.VerificationStatus `json:"status"`
	ApprovedCount int                       `json:"approved_count"`
}

func (d Decision) Verified() bool {
	return d.Status == models.VerificationVerified
}

// Current reads the decision last persisted on the round.
func Current(round *models.Round) Decision {
	return Decision{Status: round.Status(), ApprovedCount: round.VerificationCount}
}

// ComputeStatus recomputes the status from scratch. A verified round falls
// back to provisional when its fraud score rises to the threshold.
func ComputeStatus(fraudScore decimal.Decimal, attestations []models.Attestation, cfg Config) Decision {
	approved := 0
	for _, a := range attestations {
		if a.IsApproved && !a.IsPending() {
			approved++
		}
	}
	d := Decision{Status: models.VerificationProvisional, ApprovedCount: approved}
	if approved >= cfg.MinApprovals && fraudScore.LessThan(cfg.FraudThreshold) {
		d.Status = models.VerificationVerified
	}
	return d
}

// Apply writes the decision onto the round's derived fields.
func Apply(round *models.Round, d Decision) {
	round.IsVerified = d.Verified()
	round.IsProvisional = !round.IsVerified
	round.VerificationCount = d.ApprovedCount
}

// Transition reports whether moving from prev to next changes the status.
// Handicap indices are recomputed only when it does.
func Transition(prev, next Decision) bool {
	return prev.Status != next.Status
}

// CheckRequest decides whether attesterID may be asked to vouch for round.
func CheckRequest(round *models.Round, attesterID int, existing []models.Attestation) error {
	if round.PlayerID == attesterID {
		return reject(ReasonSelfAttestation)
	}
	for _, a := range existing {
		if a.RoundID == round.ID && a.AttesterID == attesterID {
			return reject(ReasonDuplicateAttestation)
		}
	}
	if !round.IsCompleted() {
		return reject(ReasonRoundNotCompleted)
	}
	return nil
}

// NewRequest builds the pending attestation for a permitted request.
func NewRequest(round *models.Round, attesterID int, now time.Time) *models.Attestation {
	return &models.Attestation{
		RoundID:           round.ID,
		RequesterPlayerID: round.PlayerID,
		AttesterID:        attesterID,
		RequestedAt:       now,
	}
}

type Response struct {
	Approved  bool
	Comments  *string
	Location  *geo.Point
	Responded time.Time
}

// Respond moves a pending attestation to approved or rejected. The attester
// is location verified when inside fence scaled by cfg.AttesterFenceFactor.
func Respond(att *models.Attestation, resp Response, fence geo.Geofence, cfg Config) error {
	if !att.IsPending() {
		return reject(ReasonAlreadyResponded)
	}
	at := resp.Responded
	att.IsApproved = resp.Approved
	att.AttestedAt = &at
	att.Comments = resp.Comments
	att.AttesterLatitude, att.AttesterLongitude = nil, nil
	if resp.Location != nil {
		lat, lon := resp.Location.Latitude, resp.Location.Longitude
		att.AttesterLatitude, att.AttesterLongitude = &lat, &lon
	}
	att.LocationVerified = fence.Contains(resp.Location, cfg.AttesterFenceFactor)
	return nil
}

// CourseFence builds the geofence of a course.
func CourseFence(course *models.Course) geo.Geofence {
	if course == nil {
		return geo.Geofence{}
	}
	return geo.Geofence{
		Center:       geo.Point{Latitude: course.Latitude, Longitude: course.Longitude},
		RadiusMeters: course.GeofenceRadiusMeters,
	}
}
