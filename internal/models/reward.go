package models

import "time"

// Reward is a prize a shop hands out to winning players.
type Reward struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ShopID uint64 `gorm:"not null;index"`    // Owning shop.
	Shop   *Shop  `gorm:"foreignKey:ShopID"` // Shop record.

	Name        string `gorm:"type:text;not null"` // Prize display name.
	Description string `gorm:"type:text"`          // Redemption details shown to the player.

	Weight int `gorm:"not null;default:1"` // Relative draw weight among the shop's rewards.

	WinnerCount int  `gorm:"not null;default:0"`     // Total winners budgeted for this prize.
	Remaining   int  `gorm:"not null;default:0"`     // Winners still available; ignored when unlimited.
	Unlimited   bool `gorm:"not null;default:false"` // No quota when true.

	ValidDays int `gorm:"not null;default:30"` // Days a won prize stays redeemable.

	Active bool `gorm:"not null;default:true"` // Whether the prize enters the draw.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Available reports whether the reward can still be won.
func (r *Reward) Available() bool {
	if r == nil || !r.Active {
		return false
	}
	return r.Unlimited || r.Remaining > 0
}
