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

// GameHandler manages the game catalog (super-admin writes, all reads).
type GameHandler struct {
	db *gorm.DB
}

// NewGameHandler constructs a GameHandler.
func NewGameHandler(db *gorm.DB) *GameHandler {
	return &GameHandler{db: db}
}

var validGameKinds = map[string]struct{}{
	models.GameKindWheel:   {},
	models.GameKindScratch: {},
	models.GameKindSlot:    {},
}

// createGameRequest defines the request body for game creation.
type createGameRequest struct {
	Name   string         `json:"name"`
	Kind   string         `json:"kind"`
	Config map[string]any `json:"config"`
}

// Create adds a game to the catalog.
func (h *GameHandler) Create(c *gin.Context) {
	var body createGameRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	kind := strings.ToLower(strings.TrimSpace(body.Kind))
	if _, ok := validGameKinds[kind]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}
	configJSON, errMarshal := marshalJSONField(body.Config)
	if errMarshal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}

	now := time.Now().UTC()
	game := models.Game{
		Name:      name,
		Kind:      kind,
		Config:    configJSON,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&game).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create game failed"})
		return
	}
	c.JSON(http.StatusCreated, gameResponse(&game))
}

// List returns the game catalog.
func (h *GameHandler) List(c *gin.Context) {
	var rows []models.Game
	if errFind := h.db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list games failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, gameResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

// updateGameRequest defines the request body for game updates.
type updateGameRequest struct {
	Name   *string         `json:"name"`
	Config *map[string]any `json:"config"`
	Active *bool           `json:"active"`
}

// Update modifies a catalog game.
func (h *GameHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body updateGameRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var game models.Game
	if errFind := h.db.WithContext(c.Request.Context()).First(&game, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Config != nil {
		configJSON, errMarshal := marshalJSONField(*body.Config)
		if errMarshal != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
			return
		}
		updates["config"] = configJSON
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&game).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update game failed"})
		return
	}
	c.JSON(http.StatusOK, gameResponse(&game))
}

// Delete removes a catalog game that has no assignments.
func (h *GameHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var assignments int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.GameAssignment{}).Where("game_id = ?", id).Count(&assignments).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if assignments > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "game has assignments"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.Game{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete game failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func gameResponse(game *models.Game) gin.H {
	return gin.H{
		"id":     game.ID,
		"name":   game.Name,
		"kind":   game.Kind,
		"config": game.Config,
		"active": game.Active,
	}
}
