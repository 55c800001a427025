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

// PlanHandler manages subscription plans.
type PlanHandler struct {
	db *gorm.DB
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{db: db}
}

// planRequest defines the request body for plan creation and updates.
type planRequest struct {
	Name         string   `json:"name"`
	MonthlyPrice *float64 `json:"monthly_price"`
	MaxShops     *int     `json:"max_shops"`
	MaxRewards   *int     `json:"max_rewards"`
	Features     []string `json:"features"`
	IsDefault    *bool    `json:"is_default"`
	Active       *bool    `json:"active"`
}

// Create adds a subscription plan.
func (h *PlanHandler) Create(c *gin.Context) {
	var body planRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	now := time.Now().UTC()
	plan := models.SubscriptionPlan{
		Name:       name,
		MaxShops:   1,
		MaxRewards: 10,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if body.MonthlyPrice != nil {
		plan.MonthlyPrice = *body.MonthlyPrice
	}
	if body.MaxShops != nil && *body.MaxShops > 0 {
		plan.MaxShops = *body.MaxShops
	}
	if body.MaxRewards != nil && *body.MaxRewards > 0 {
		plan.MaxRewards = *body.MaxRewards
	}
	if body.IsDefault != nil {
		plan.IsDefault = *body.IsDefault
	}
	if body.Active != nil {
		plan.Active = *body.Active
	}
	featuresJSON, errMarshal := marshalStringList(body.Features)
	if errMarshal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid features"})
		return
	}
	plan.Features = featuresJSON

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if plan.IsDefault {
			if errClear := clearDefaultPlan(tx); errClear != nil {
				return errClear
			}
		}
		return tx.Create(&plan).Error
	})
	if errTx != nil {
		if errors.Is(errTx, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create plan failed"})
		return
	}
	c.JSON(http.StatusCreated, planResponse(&plan))
}

// List returns all subscription plans.
func (h *PlanHandler) List(c *gin.Context) {
	var rows []models.SubscriptionPlan
	if errFind := h.db.WithContext(c.Request.Context()).Order("monthly_price ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, planResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Update modifies a subscription plan.
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body planRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var plan models.SubscriptionPlan
	if errFind := h.db.WithContext(c.Request.Context()).First(&plan, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if strings.TrimSpace(body.Name) != "" {
		updates["name"] = strings.TrimSpace(body.Name)
	}
	if body.MonthlyPrice != nil {
		updates["monthly_price"] = *body.MonthlyPrice
	}
	if body.MaxShops != nil && *body.MaxShops > 0 {
		updates["max_shops"] = *body.MaxShops
	}
	if body.MaxRewards != nil && *body.MaxRewards > 0 {
		updates["max_rewards"] = *body.MaxRewards
	}
	if body.Features != nil {
		featuresJSON, errMarshal := marshalStringList(body.Features)
		if errMarshal != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid features"})
			return
		}
		updates["features"] = featuresJSON
	}
	if body.IsDefault != nil {
		updates["is_default"] = *body.IsDefault
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if body.IsDefault != nil && *body.IsDefault {
			if errClear := clearDefaultPlan(tx); errClear != nil {
				return errClear
			}
		}
		return tx.Model(&plan).Updates(updates).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update plan failed"})
		return
	}
	c.JSON(http.StatusOK, planResponse(&plan))
}

// Delete removes a plan that no admin references.
func (h *PlanHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var subscribers int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).Where("plan_id = ?", id).Count(&subscribers).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if subscribers > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "plan has subscribers"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.SubscriptionPlan{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete plan failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func clearDefaultPlan(tx *gorm.DB) error {
	return tx.Model(&models.SubscriptionPlan{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}

func planResponse(plan *models.SubscriptionPlan) gin.H {
	return gin.H{
		"id":            plan.ID,
		"name":          plan.Name,
		"monthly_price": plan.MonthlyPrice,
		"max_shops":     plan.MaxShops,
		"max_rewards":   plan.MaxRewards,
		"features":      plan.Features,
		"is_default":    plan.IsDefault,
		"active":        plan.Active,
	}
}
