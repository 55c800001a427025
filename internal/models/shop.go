package models

import (
	"time"

	"gorm.io/datatypes"
)

// Shop represents a tenant's physical location where customers scan and play.
type Shop struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AdminID uint64 `gorm:"not null;index"`     // Owning admin.
	Admin   *Admin `gorm:"foreignKey:AdminID"` // Owner record.

	Name string `gorm:"type:text;not null"`             // Display name.
	Slug string `gorm:"type:text;not null;uniqueIndex"` // URL slug embedded in QR codes.

	Branding datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Logo, colors, copy shown on the play page.

	GuaranteedWin  bool `gorm:"not null;default:false"` // Every eligible play wins when true.
	WinningPercent int  `gorm:"not null;default:100"`   // Win probability target, 0-100.

	PINHash string `gorm:"type:text;not null"` // Hashed staff PIN for in-store redemption.

	Active bool `gorm:"not null;default:true"` // Whether the shop accepts plays.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
