package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbutil "github.com/amira30til/ScanToWin-sub001/internal/db"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// PlayerHandler exposes read access to the player roster.
type PlayerHandler struct {
	db *gorm.DB
}

// NewPlayerHandler constructs a PlayerHandler.
func NewPlayerHandler(db *gorm.DB) *PlayerHandler {
	return &PlayerHandler{db: db}
}

// List returns players, scoped to the admin's shops unless super admin.
// Supports ?search= on email and name plus page/page_size.
func (h *PlayerHandler) List(c *gin.Context) {
	adminID := getAdminID(c)
	page, pageSize := pagination(c)

	query := h.db.WithContext(c.Request.Context()).Model(&models.Player{})
	if !isSuperAdmin(c) {
		query = query.Where(
			"id IN (?)",
			h.db.Model(&models.PlayerGameHistory{}).
				Select("player_id").
				Where("shop_id IN (?)", h.db.Model(&models.Shop{}).Select("id").Where("admin_id = ?", adminID)),
		)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		query = query.Where(
			h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "email"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "first_name"), pattern),
		)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var rows []models.Player
	errFind := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list players failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, playerResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"players":   out,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get returns one player with their per shop play history.
func (h *PlayerHandler) Get(c *gin.Context) {
	adminID := getAdminID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var player models.Player
	if errFind := h.db.WithContext(c.Request.Context()).First(&player, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	historyQuery := h.db.WithContext(c.Request.Context()).
		Model(&models.PlayerGameHistory{}).
		Where("player_id = ?", player.ID)
	if !isSuperAdmin(c) {
		historyQuery = historyQuery.Where(
			"shop_id IN (?)",
			h.db.Model(&models.Shop{}).Select("id").Where("admin_id = ?", adminID),
		)
	}

	var history []models.PlayerGameHistory
	if errFind := historyQuery.Order("last_played_at DESC").Find(&history).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !isSuperAdmin(c) && len(history) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	entries := make([]gin.H, 0, len(history))
	for i := range history {
		row := &history[i]
		entries = append(entries, gin.H{
			"shop_id":        row.ShopID,
			"game_id":        row.GameID,
			"play_count":     row.PlayCount,
			"last_played_at": row.LastPlayedAt,
			"last_reward_id": row.LastRewardID,
		})
	}

	resp := playerResponse(&player)
	resp["history"] = entries
	c.JSON(http.StatusOK, resp)
}

func playerResponse(player *models.Player) gin.H {
	return gin.H{
		"id":                  player.ID,
		"email":               player.Email,
		"first_name":          player.FirstName,
		"last_name":           player.LastName,
		"tel":                 player.Tel,
		"agree_to_promotions": player.AgreeToPromotions,
		"total_played_games":  player.TotalPlayedGames,
		"created_at":          player.CreatedAt,
	}
}
