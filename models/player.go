package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlayerRole string

const (
	RoleAdmin  PlayerRole = "admin"
	RolePlayer PlayerRole = "player"
)

type Player struct {
	ID              int        `json:"id" db:"id"`
	FirstName       string     `json:"first_name" db:"first_name"`
	LastName        string     `json:"last_name" db:"last_name"`
	Nickname        *string    `json:"nickname,omitempty" db:"nickname"`
	Email           string     `json:"email" db:"email"`
	Phone           *string    `json:"phone,omitempty" db:"phone"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	Role            PlayerRole `json:"role" db:"role"`
	AccountVerified bool       `json:"account_verified" db:"account_verified"`

	// Derived caches, written only by the handicap service.
	ProvisionalHandicapIndex *decimal.Decimal `json:"provisional_handicap_index" db:"provisional_handicap_index"`
	VerifiedHandicapIndex    *decimal.Decimal `json:"verified_handicap_index" db:"verified_handicap_index"`
	RoundsPlayed             int              `json:"rounds_played" db:"rounds_played"`
	VerifiedRounds           int              `json:"verified_rounds" db:"verified_rounds"`
	HandicapUpdatedAt        *time.Time       `json:"handicap_updated_at,omitempty" db:"handicap_updated_at"`

	RowVersion int64     `json:"-" db:"row_version"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (p *Player) GetID() int            { return p.ID }
func (p *Player) GetRowVersion() int64  { return p.RowVersion }
func (p *Player) SetRowVersion(v int64) { p.RowVersion = v }

func (p *Player) DisplayName() string {
	if p.Nickname != nil && *p.Nickname != "" {
		return *p.Nickname
	}
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
