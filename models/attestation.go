package models

import "time"

type Attestation struct {
	ID                int        `json:"id" db:"id"`
	RoundID           int        `json:"round_id" db:"round_id"`
	RequesterPlayerID int        `json:"requester_player_id" db:"requester_player_id"`
	AttesterID        int        `json:"attester_id" db:"attester_id"`
	IsApproved        bool       `json:"is_approved" db:"is_approved"`
	Comments          *string    `json:"comments,omitempty" db:"comments"`
	RequestedAt       time.Time  `json:"requested_at" db:"requested_at"`
	AttestedAt        *time.Time `json:"attested_at,omitempty" db:"attested_at"`
	AttesterLatitude  *float64   `json:"attester_latitude,omitempty" db:"attester_latitude"`
	AttesterLongitude *float64   `json:"attester_longitude,omitempty" db:"attester_longitude"`
	LocationVerified  bool       `json:"location_verified" db:"location_verified"`
	RemindedAt        *time.Time `json:"-" db:"reminded_at"`

	Attester *Player `json:"attester,omitempty" db:"-"`
}

func (a *Attestation) IsPending() bool {
	return a.AttestedAt == nil
}
