package settings

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// Refresh reloads all settings rows from the database into the snapshot.
func Refresh(ctx context.Context, conn *gorm.DB) error {
	var rows []models.Setting
	if errFind := conn.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return errFind
	}
	values := make(map[string]json.RawMessage, len(rows))
	latest := time.Time{}
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
		if row.UpdatedAt.After(latest) {
			latest = row.UpdatedAt
		}
	}
	Store(latest, values)
	return nil
}
