package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// RewardHandler manages prizes.
type RewardHandler struct {
	db *gorm.DB
}

// NewRewardHandler constructs a RewardHandler.
func NewRewardHandler(db *gorm.DB) *RewardHandler {
	return &RewardHandler{db: db}
}

// createRewardRequest defines the request body for reward creation.
type createRewardRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Weight      *int   `json:"weight"`
	WinnerCount int    `json:"winner_count"`
	Unlimited   bool   `json:"unlimited"`
	ValidDays   *int   `json:"valid_days"`
}

// Create adds a prize to a shop, bounded by the owner's plan reward limit.
func (h *RewardHandler) Create(c *gin.Context) {
	shopID, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, shopID)
	if !ok {
		return
	}

	var body createRewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	if !body.Unlimited && body.WinnerCount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "winner_count must be positive"})
		return
	}

	weight := 1
	if body.Weight != nil {
		weight = *body.Weight
	}
	if weight <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weight must be positive"})
		return
	}
	validDays := 30
	if body.ValidDays != nil {
		validDays = *body.ValidDays
	}
	if validDays <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid_days must be positive"})
		return
	}

	if !h.withinPlanRewardLimit(c, shop) {
		return
	}

	now := time.Now().UTC()
	reward := models.Reward{
		ShopID:      shop.ID,
		Name:        name,
		Description: strings.TrimSpace(body.Description),
		Weight:      weight,
		WinnerCount: body.WinnerCount,
		Remaining:   body.WinnerCount,
		Unlimited:   body.Unlimited,
		ValidDays:   validDays,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&reward).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create reward failed"})
		return
	}
	c.JSON(http.StatusCreated, rewardResponse(&reward))
}

// List returns a shop's prizes.
func (h *RewardHandler) List(c *gin.Context) {
	shopID, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, shopID)
	if !ok {
		return
	}

	var rows []models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).Where("shop_id = ?", shop.ID).Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list rewards failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, rewardResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rewards": out})
}

// updateRewardRequest defines the request body for reward updates.
type updateRewardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Weight      *int    `json:"weight"`
	WinnerCount *int    `json:"winner_count"`
	Unlimited   *bool   `json:"unlimited"`
	ValidDays   *int    `json:"valid_days"`
	Active      *bool   `json:"active"`
}

// Update modifies a prize. Raising winner_count raises the remaining
// quota by the same delta; lowering it caps remaining at the new target.
func (h *RewardHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reward, ok := h.loadOwnedReward(c, id)
	if !ok {
		return
	}

	var body updateRewardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if body.Weight != nil {
		if *body.Weight <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weight must be positive"})
			return
		}
		updates["weight"] = *body.Weight
	}
	if body.WinnerCount != nil {
		if *body.WinnerCount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "winner_count must not be negative"})
			return
		}
		delta := *body.WinnerCount - reward.WinnerCount
		remaining := reward.Remaining + delta
		if remaining < 0 {
			remaining = 0
		}
		if remaining > *body.WinnerCount {
			remaining = *body.WinnerCount
		}
		updates["winner_count"] = *body.WinnerCount
		updates["remaining"] = remaining
	}
	if body.Unlimited != nil {
		updates["unlimited"] = *body.Unlimited
	}
	if body.ValidDays != nil {
		if *body.ValidDays <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "valid_days must be positive"})
			return
		}
		updates["valid_days"] = *body.ValidDays
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(reward).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update reward failed"})
		return
	}
	c.JSON(http.StatusOK, rewardResponse(reward))
}

// Delete removes a prize.
func (h *RewardHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reward, ok := h.loadOwnedReward(c, id)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(reward).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete reward failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// loadOwnedReward loads a reward and checks shop ownership.
func (h *RewardHandler) loadOwnedReward(c *gin.Context, id uint64) (*models.Reward, bool) {
	var reward models.Reward
	if errFind := h.db.WithContext(c.Request.Context()).First(&reward, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reward not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if _, ok := loadOwnedShop(c, h.db, reward.ShopID); !ok {
		return nil, false
	}
	return &reward, true
}

// withinPlanRewardLimit checks the shop owner's plan reward quota.
func (h *RewardHandler) withinPlanRewardLimit(c *gin.Context, shop *models.Shop) bool {
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).Preload("Plan").First(&admin, shop.AdminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query admin failed"})
		return false
	}
	if admin.Plan == nil || admin.IsSuperAdmin {
		return true
	}
	var owned int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.Reward{}).Where("shop_id = ?", shop.ID).Count(&owned).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query rewards failed"})
		return false
	}
	if owned >= int64(admin.Plan.MaxRewards) {
		c.JSON(http.StatusForbidden, gin.H{"error": "plan reward limit reached"})
		return false
	}
	return true
}

func rewardResponse(reward *models.Reward) gin.H {
	return gin.H{
		"id":           reward.ID,
		"shop_id":      reward.ShopID,
		"name":         reward.Name,
		"description":  reward.Description,
		"weight":       reward.Weight,
		"winner_count": reward.WinnerCount,
		"remaining":    reward.Remaining,
		"unlimited":    reward.Unlimited,
		"valid_days":   reward.ValidDays,
		"active":       reward.Active,
	}
}
