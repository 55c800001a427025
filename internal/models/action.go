package models

import "time"

// Action is a QR touchpoint placed inside a shop (table sticker, counter
// card, receipt). Each scan that leads to a play references the action it
// originated from.
type Action struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ShopID uint64 `gorm:"not null;index"`    // Owning shop.
	Shop   *Shop  `gorm:"foreignKey:ShopID"` // Shop record.

	Name     string `gorm:"type:text;not null"`             // Placement label.
	QRToken  string `gorm:"type:text;not null;uniqueIndex"` // Opaque token encoded in the QR code.
	ScanHits uint64 `gorm:"not null;default:0"`             // Total scans recorded for this touchpoint.

	Active bool `gorm:"not null;default:true"` // Whether the touchpoint accepts scans.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
