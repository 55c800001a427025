package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// AssignmentHandler manages game assignments for shops.
type AssignmentHandler struct {
	db *gorm.DB
}

// NewAssignmentHandler constructs an AssignmentHandler.
func NewAssignmentHandler(db *gorm.DB) *AssignmentHandler {
	return &AssignmentHandler{db: db}
}

// createAssignmentRequest defines the request body for assignment creation.
type createAssignmentRequest struct {
	GameID   uint64     `json:"game_id"`
	Activate bool       `json:"activate"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

// Create binds a game to a shop, optionally activating it immediately.
func (h *AssignmentHandler) Create(c *gin.Context) {
	shopID, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, shopID)
	if !ok {
		return
	}

	var body createAssignmentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.GameID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing game_id"})
		return
	}

	var game models.Game
	if errFind := h.db.WithContext(c.Request.Context()).Where("id = ? AND active = ?", body.GameID, true).First(&game).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	now := time.Now().UTC()
	assignment := models.GameAssignment{
		ShopID:    shop.ID,
		GameID:    game.ID,
		StartsAt:  body.StartsAt,
		EndsAt:    body.EndsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if body.Activate {
			if errDeactivate := deactivateShopAssignments(tx, shop.ID); errDeactivate != nil {
				return errDeactivate
			}
			assignment.IsActive = true
		}
		return tx.Create(&assignment).Error
	})
	if errTx != nil {
		if errors.Is(errTx, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "shop already has an active assignment"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create assignment failed"})
		return
	}
	c.JSON(http.StatusCreated, assignmentResponse(&assignment))
}

// List returns a shop's assignments, newest first.
func (h *AssignmentHandler) List(c *gin.Context) {
	shopID, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, shopID)
	if !ok {
		return
	}

	var rows []models.GameAssignment
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Game").
		Where("shop_id = ?", shop.ID).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list assignments failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		item := assignmentResponse(&rows[i])
		if rows[i].Game != nil {
			item["game"] = gin.H{"id": rows[i].Game.ID, "name": rows[i].Game.Name, "kind": rows[i].Game.Kind}
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"assignments": out})
}

// Activate makes an assignment the shop's single active one. The previous
// active assignment is deactivated in the same transaction; the partial
// unique index rejects any concurrent activation that slips past.
func (h *AssignmentHandler) Activate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	assignment, ok := h.loadOwnedAssignment(c, id)
	if !ok {
		return
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errDeactivate := deactivateShopAssignments(tx, assignment.ShopID); errDeactivate != nil {
			return errDeactivate
		}
		return tx.Model(assignment).Updates(map[string]any{
			"is_active":  true,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if errTx != nil {
		if errors.Is(errTx, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "shop already has an active assignment"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "activate assignment failed"})
		return
	}
	assignment.IsActive = true
	c.JSON(http.StatusOK, assignmentResponse(assignment))
}

// Deactivate turns an assignment off.
func (h *AssignmentHandler) Deactivate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	assignment, ok := h.loadOwnedAssignment(c, id)
	if !ok {
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(assignment).Updates(map[string]any{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate assignment failed"})
		return
	}
	assignment.IsActive = false
	c.JSON(http.StatusOK, assignmentResponse(assignment))
}

// loadOwnedAssignment loads an assignment and checks shop ownership.
func (h *AssignmentHandler) loadOwnedAssignment(c *gin.Context, id uint64) (*models.GameAssignment, bool) {
	var assignment models.GameAssignment
	if errFind := h.db.WithContext(c.Request.Context()).First(&assignment, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "assignment not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if _, ok := loadOwnedShop(c, h.db, assignment.ShopID); !ok {
		return nil, false
	}
	return &assignment, true
}

func deactivateShopAssignments(tx *gorm.DB, shopID uint64) error {
	return tx.Model(&models.GameAssignment{}).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()}).Error
}

func assignmentResponse(a *models.GameAssignment) gin.H {
	return gin.H{
		"id":        a.ID,
		"shop_id":   a.ShopID,
		"game_id":   a.GameID,
		"is_active": a.IsActive,
		"starts_at": a.StartsAt,
		"ends_at":   a.EndsAt,
	}
}
