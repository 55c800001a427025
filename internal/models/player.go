package models

import "time"

// Player is a customer identity keyed by normalized email. Created on the
// first play at any shop and never deleted by the play workflow.
type Player struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email     string `gorm:"type:text;not null;uniqueIndex"` // Trimmed, lower-cased.
	FirstName string `gorm:"type:text;not null"`             // Given name.
	LastName  string `gorm:"type:text"`                      // Family name, optional.
	Tel       string `gorm:"type:text"`                      // Phone number, optional.

	AgreeToPromotions bool `gorm:"not null;default:false"` // Marketing consent flag.

	TotalPlayedGames uint64 `gorm:"not null;default:0"` // Running play counter across all shops.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PlayerGameHistory tracks cumulative plays for one (player, shop, game)
// tuple. Its LastPlayedAt column is the sole source of truth for cooldown
// enforcement.
type PlayerGameHistory struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PlayerID uint64 `gorm:"not null;uniqueIndex:idx_player_shop_game"`       // Player reference.
	ShopID   uint64 `gorm:"not null;uniqueIndex:idx_player_shop_game;index"` // Shop reference.
	GameID   uint64 `gorm:"not null;uniqueIndex:idx_player_shop_game"`       // Game reference.

	Player *Player `gorm:"foreignKey:PlayerID"` // Player record.
	Shop   *Shop   `gorm:"foreignKey:ShopID"`   // Shop record.
	Game   *Game   `gorm:"foreignKey:GameID"`   // Game record.

	PlayCount    uint64    `gorm:"not null;default:0"`      // Plays recorded for this tuple.
	LastPlayedAt time.Time `gorm:"not null;index"`          // Timestamp of the newest play.
	LastRewardID *uint64   `gorm:"index"`                   // Most recently awarded prize, if any.
	LastReward   *Reward   `gorm:"foreignKey:LastRewardID"` // Prize record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
