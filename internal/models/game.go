package models

import (
	"time"

	"gorm.io/datatypes"
)

// Game kinds supported by the play UI.
const (
	// GameKindWheel is a wheel-of-fortune game.
	GameKindWheel = "wheel"
	// GameKindScratch is a scratch-card game.
	GameKindScratch = "scratch"
	// GameKindSlot is a slot-machine game.
	GameKindSlot = "slot"
)

// Game is a catalog entry describing a playable game type.
type Game struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:text;not null;uniqueIndex"` // Catalog name.
	Kind string `gorm:"type:text;not null"`             // One of the GameKind constants.

	Config datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Kind-specific presentation config.

	Active bool `gorm:"not null;default:true"` // Whether the game can be assigned.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// GameAssignment binds a game configuration to a shop. At most one
// assignment per shop may be active at a time.
type GameAssignment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ShopID uint64 `gorm:"not null;index"`    // Target shop.
	Shop   *Shop  `gorm:"foreignKey:ShopID"` // Shop record.
	GameID uint64 `gorm:"not null;index"`    // Assigned game.
	Game   *Game  `gorm:"foreignKey:GameID"` // Game record.

	IsActive bool `gorm:"not null;default:false;index"` // Whether this assignment currently drives plays.

	StartsAt *time.Time // Scheduled activation time, if any.
	EndsAt   *time.Time // Scheduled deactivation time, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
