package models

import (
	"time"

	"gorm.io/datatypes"
)

// Play outcomes recorded on a PlayEvent.
const (
	// OutcomeWon marks a play that produced a prize.
	OutcomeWon = "won"
	// OutcomeLost marks a play that produced no prize.
	OutcomeLost = "lost"
)

// PlayEvent is an append-only audit record of a single play. Won events
// double as the redemption record via their unique redemption code; the
// play workflow never updates or deletes them, only the redeem endpoint
// stamps RedeemedAt.
type PlayEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PlayerID     uint64  `gorm:"not null;index"` // Player who played.
	ShopID       uint64  `gorm:"not null;index"` // Shop played at.
	GameID       uint64  `gorm:"not null"`       // Game configuration used.
	AssignmentID uint64  `gorm:"not null"`       // Active assignment at play time.
	ActionID     *uint64 `gorm:"index"`          // Originating QR touchpoint, if known.
	RewardID     *uint64 `gorm:"index"`          // Prize won; nil on a losing play.

	Player     *Player         `gorm:"foreignKey:PlayerID"`     // Player record.
	Shop       *Shop           `gorm:"foreignKey:ShopID"`       // Shop record.
	Game       *Game           `gorm:"foreignKey:GameID"`       // Game record.
	Assignment *GameAssignment `gorm:"foreignKey:AssignmentID"` // Assignment record.
	Action     *Action         `gorm:"foreignKey:ActionID"`     // Touchpoint record.
	Reward     *Reward         `gorm:"foreignKey:RewardID"`     // Prize record.

	Outcome string `gorm:"type:text;not null"` // OutcomeWon or OutcomeLost.

	// Code the player presents in store; empty on lost events. Uniqueness
	// of non-empty codes is enforced by a partial index in db.Migrate.
	RedemptionCode string     `gorm:"type:text;not null;default:''"`
	ValidUntil     *time.Time // Last instant the prize can be redeemed.
	RedeemedAt     *time.Time `gorm:"index"` // Redemption time, if redeemed.

	Metadata datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Client context captured at play time.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Play timestamp.
}

// Redeemable reports whether the event is a won, unredeemed, unexpired prize.
func (e *PlayEvent) Redeemable(now time.Time) bool {
	if e == nil || e.Outcome != OutcomeWon || e.RedeemedAt != nil {
		return false
	}
	if e.ValidUntil != nil && now.After(*e.ValidUntil) {
		return false
	}
	return true
}
