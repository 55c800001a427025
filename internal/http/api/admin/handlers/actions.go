package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

// ActionHandler manages QR touchpoints.
type ActionHandler struct {
	db *gorm.DB
}

// NewActionHandler constructs an ActionHandler.
func NewActionHandler(db *gorm.DB) *ActionHandler {
	return &ActionHandler{db: db}
}

// createActionRequest defines the request body for action creation.
type createActionRequest struct {
	Name string `json:"name"`
}

// Create adds a QR touchpoint to a shop with a fresh opaque token.
func (h *ActionHandler) Create(c *gin.Context) {
	shopID, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, shopID)
	if !ok {
		return
	}

	var body createActionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	token, errToken := security.NewQRToken()
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate token failed"})
		return
	}

	now := time.Now().UTC()
	action := models.Action{
		ShopID:    shop.ID,
		Name:      name,
		QRToken:   token,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&action).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create action failed"})
		return
	}
	c.JSON(http.StatusCreated, actionResponse(&action))
}

// List returns a shop's QR touchpoints.
func (h *ActionHandler) List(c *gin.Context) {
	shopID, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, shopID)
	if !ok {
		return
	}

	var rows []models.Action
	if errFind := h.db.WithContext(c.Request.Context()).Where("shop_id = ?", shop.ID).Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list actions failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, actionResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"actions": out})
}

// updateActionRequest defines the request body for action updates.
type updateActionRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

// Update modifies a QR touchpoint.
func (h *ActionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	action, ok := h.loadOwnedAction(c, id)
	if !ok {
		return
	}

	var body updateActionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(action).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update action failed"})
		return
	}
	c.JSON(http.StatusOK, actionResponse(action))
}

// Delete removes a QR touchpoint.
func (h *ActionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	action, ok := h.loadOwnedAction(c, id)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(action).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete action failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// loadOwnedAction loads an action and checks shop ownership.
func (h *ActionHandler) loadOwnedAction(c *gin.Context, id uint64) (*models.Action, bool) {
	var action models.Action
	if errFind := h.db.WithContext(c.Request.Context()).First(&action, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "action not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if _, ok := loadOwnedShop(c, h.db, action.ShopID); !ok {
		return nil, false
	}
	return &action, true
}

func actionResponse(action *models.Action) gin.H {
	return gin.H{
		"id":        action.ID,
		"shop_id":   action.ShopID,
		"name":      action.Name,
		"qr_token":  action.QRToken,
		"scan_hits": action.ScanHits,
		"active":    action.Active,
	}
}
