package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlan defines limits and pricing for tenant admins.
type SubscriptionPlan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name         string  `gorm:"type:text;not null;uniqueIndex"`         // Plan display name.
	MonthlyPrice float64 `gorm:"type:decimal(20,10);not null;default:0"` // Price per month.

	MaxShops   int `gorm:"not null;default:1"`  // Shops an admin on this plan may own.
	MaxRewards int `gorm:"not null;default:10"` // Rewards allowed per shop.

	Features datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Feature keys in JSON.

	IsDefault bool `gorm:"not null;default:false"` // Assigned to new admins when true.
	Active    bool `gorm:"not null;default:true"`  // Whether the plan can be subscribed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
