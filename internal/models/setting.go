package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores one platform-level runtime setting as a JSON value.
type Setting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	// Value is stored as text: scalar JSON values (numbers, strings) do
	// not survive sqlite's column affinity under a json column type.
	Key   string         `gorm:"type:text;not null;uniqueIndex"`
	Value datatypes.JSON `gorm:"type:text"`

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
