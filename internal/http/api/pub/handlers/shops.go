package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/reward"
)

// ShopHandler serves the public shop page data.
type ShopHandler struct {
	db *gorm.DB
}

// NewShopHandler constructs a ShopHandler.
func NewShopHandler(db *gorm.DB) *ShopHandler {
	return &ShopHandler{db: db}
}

// GetBySlug returns the branding and active game config the play UI needs.
func (h *ShopHandler) GetBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing slug"})
		return
	}

	var shop models.Shop
	if errFind := h.db.WithContext(c.Request.Context()).Where("slug = ? AND active = ?", slug, true).First(&shop).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := gin.H{
		"id":       shop.ID,
		"name":     shop.Name,
		"slug":     shop.Slug,
		"branding": shop.Branding,
	}

	var assignment models.GameAssignment
	errAssignment := h.db.WithContext(c.Request.Context()).
		Preload("Game").
		Where("shop_id = ? AND is_active = ?", shop.ID, true).
		First(&assignment).Error
	switch {
	case errAssignment == nil:
		out["game"] = gin.H{
			"id":     assignment.GameID,
			"name":   assignment.Game.Name,
			"kind":   assignment.Game.Kind,
			"config": assignment.Game.Config,
		}
	case errors.Is(errAssignment, gorm.ErrRecordNotFound):
		out["game"] = nil
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, out)
}

// PreviewHandler serves the non-committing weighted draw preview the
// frontend animates before submitting the play.
type PreviewHandler struct {
	db     *gorm.DB
	drawer *reward.Drawer
}

// NewPreviewHandler constructs a PreviewHandler.
func NewPreviewHandler(db *gorm.DB, drawer *reward.Drawer) *PreviewHandler {
	return &PreviewHandler{db: db, drawer: drawer}
}

// Draw runs a weighted draw without decrementing any quota. Quotas are
// only consumed when the play itself commits.
func (h *PreviewHandler) Draw(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	var shop models.Shop
	if errFind := h.db.WithContext(c.Request.Context()).Where("slug = ? AND active = ?", slug, true).First(&shop).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	var rewards []models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).Where("shop_id = ? AND active = ?", shop.ID, true).Find(&rewards).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	picked := h.drawer.Pick(&shop, rewards)
	if picked == nil {
		c.JSON(http.StatusOK, gin.H{"outcome": "lost"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome": "won",
		"reward": gin.H{
			"id":          picked.ID,
			"name":        picked.Name,
			"description": picked.Description,
		},
	})
}
