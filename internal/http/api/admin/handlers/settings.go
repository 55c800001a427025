package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/settings"
)

// SettingsHandler reads and writes platform settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// allowedSettingKeys restricts writes to known platform keys.
var allowedSettingKeys = map[string]bool{
	settings.SiteNameKey:                true,
	settings.CooldownHoursKey:           true,
	settings.EventRetentionDaysKey:      true,
	settings.MaintainIntervalSecondsKey: true,
}

// Get returns all current settings rows.
func (h *SettingsHandler) Get(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).Order("key ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list settings failed"})
		return
	}
	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
	}
	c.JSON(http.StatusOK, gin.H{"settings": values})
}

// Put upserts settings by key and refreshes the in-memory snapshot.
func (h *SettingsHandler) Put(c *gin.Context) {
	var body map[string]json.RawMessage
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings provided"})
		return
	}
	for key := range body {
		if !allowedSettingKeys[strings.ToUpper(strings.TrimSpace(key))] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting key: " + key})
			return
		}
	}

	now := time.Now().UTC()
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for key, raw := range body {
			row := models.Setting{
				Key:       strings.ToUpper(strings.TrimSpace(key)),
				Value:     datatypes.JSON(raw),
				UpdatedAt: now,
			}
			errUpsert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if errUpsert != nil {
				return errUpsert
			}
		}
		return nil
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save settings failed"})
		return
	}

	if errRefresh := settings.Refresh(c.Request.Context(), h.db); errRefresh != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh settings failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
