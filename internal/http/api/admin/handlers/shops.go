package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbutil "github.com/amira30til/ScanToWin-sub001/internal/db"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

// ShopHandler manages shop endpoints.
type ShopHandler struct {
	db *gorm.DB
}

// NewShopHandler constructs a ShopHandler.
func NewShopHandler(db *gorm.DB) *ShopHandler {
	return &ShopHandler{db: db}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// createShopRequest defines the request body for shop creation.
type createShopRequest struct {
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Branding       map[string]any `json:"branding"`
	GuaranteedWin  bool           `json:"guaranteed_win"`
	WinningPercent *int           `json:"winning_percent"`
	PIN            string         `json:"pin"`
	AdminID        *uint64        `json:"admin_id"`
}

// Create creates a shop. Super admins may create on behalf of another
// admin via admin_id; tenant admins always own what they create and are
// bound by their plan's shop limit.
func (h *ShopHandler) Create(c *gin.Context) {
	var body createShopRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	slug := strings.ToLower(strings.TrimSpace(body.Slug))
	if !slugPattern.MatchString(slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slug"})
		return
	}
	pin := strings.TrimSpace(body.PIN)
	if len(pin) < 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin must be at least 4 characters"})
		return
	}

	ownerID := getAdminID(c)
	if body.AdminID != nil && isSuperAdmin(c) {
		ownerID = *body.AdminID
	}

	if !isSuperAdmin(c) {
		if !h.withinPlanShopLimit(c, ownerID) {
			return
		}
	}

	percent := 100
	if body.WinningPercent != nil {
		percent = *body.WinningPercent
	}
	if percent < 0 || percent > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "winning_percent must be between 0 and 100"})
		return
	}

	pinHash, errHash := security.HashPIN(pin)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash pin failed"})
		return
	}

	branding, errMarshal := marshalJSONField(body.Branding)
	if errMarshal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branding"})
		return
	}

	now := time.Now().UTC()
	shop := models.Shop{
		AdminID:        ownerID,
		Name:           name,
		Slug:           slug,
		Branding:       branding,
		GuaranteedWin:  body.GuaranteedWin,
		WinningPercent: percent,
		PINHash:        pinHash,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&shop).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create shop failed"})
		return
	}
	c.JSON(http.StatusCreated, shopResponse(&shop))
}

// List returns the shops visible to the caller.
func (h *ShopHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Shop{})
	if !isSuperAdmin(c) {
		q = q.Where("admin_id = ?", getAdminID(c))
	}
	if nameQ := strings.TrimSpace(c.Query("name")); nameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+nameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}

	var rows []models.Shop
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list shops failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, shopResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"shops": out})
}

// Get returns one shop.
func (h *ShopHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, shopResponse(shop))
}

// updateShopRequest defines the request body for shop updates.
type updateShopRequest struct {
	Name           *string         `json:"name"`
	Branding       *map[string]any `json:"branding"`
	GuaranteedWin  *bool           `json:"guaranteed_win"`
	WinningPercent *int            `json:"winning_percent"`
	PIN            *string         `json:"pin"`
	Active         *bool           `json:"active"`
}

// Update modifies a shop.
func (h *ShopHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, id)
	if !ok {
		return
	}

	var body updateShopRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Branding != nil {
		branding, errMarshal := marshalJSONField(*body.Branding)
		if errMarshal != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branding"})
			return
		}
		updates["branding"] = branding
	}
	if body.GuaranteedWin != nil {
		updates["guaranteed_win"] = *body.GuaranteedWin
	}
	if body.WinningPercent != nil {
		if *body.WinningPercent < 0 || *body.WinningPercent > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "winning_percent must be between 0 and 100"})
			return
		}
		updates["winning_percent"] = *body.WinningPercent
	}
	if body.PIN != nil {
		pin := strings.TrimSpace(*body.PIN)
		if len(pin) < 4 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pin must be at least 4 characters"})
			return
		}
		pinHash, errHash := security.HashPIN(pin)
		if errHash != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash pin failed"})
			return
		}
		updates["pin_hash"] = pinHash
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(shop).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update shop failed"})
		return
	}
	c.JSON(http.StatusOK, shopResponse(shop))
}

// Delete removes a shop.
func (h *ShopHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, id)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(shop).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete shop failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Stats returns play, win, and redemption counters for a shop.
func (h *ShopHandler) Stats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, id)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var plays, wins, redemptions, players int64
	if errCount := h.db.WithContext(ctx).Model(&models.PlayEvent{}).Where("shop_id = ?", shop.ID).Count(&plays).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	if errCount := h.db.WithContext(ctx).Model(&models.PlayEvent{}).Where("shop_id = ? AND outcome = ?", shop.ID, models.OutcomeWon).Count(&wins).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	if errCount := h.db.WithContext(ctx).Model(&models.PlayEvent{}).Where("shop_id = ? AND redeemed_at IS NOT NULL", shop.ID).Count(&redemptions).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	if errCount := h.db.WithContext(ctx).Model(&models.PlayEvent{}).Where("shop_id = ?", shop.ID).Distinct("player_id").Count(&players).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plays":          plays,
		"wins":           wins,
		"redemptions":    redemptions,
		"unique_players": players,
	})
}

// Events returns the paginated play event log for a shop.
func (h *ShopHandler) Events(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	shop, ok := loadOwnedShop(c, h.db, id)
	if !ok {
		return
	}

	page, pageSize := pagination(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.PlayEvent{}).Where("shop_id = ?", shop.ID)
	if outcome := strings.TrimSpace(c.Query("outcome")); outcome != "" {
		q = q.Where("outcome = ?", outcome)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list events failed"})
		return
	}

	var rows []models.PlayEvent
	if errFind := q.Preload("Player").Preload("Reward").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list events failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		item := gin.H{
			"id":          row.ID,
			"outcome":     row.Outcome,
			"created_at":  row.CreatedAt,
			"redeemed_at": row.RedeemedAt,
		}
		if row.Player != nil {
			item["player"] = gin.H{"id": row.Player.ID, "email": row.Player.Email}
		}
		if row.Reward != nil {
			item["reward"] = gin.H{"id": row.Reward.ID, "name": row.Reward.Name}
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{
		"events":    out,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// withinPlanShopLimit checks the caller's plan shop quota, writing the
// error response itself on failure.
func (h *ShopHandler) withinPlanShopLimit(c *gin.Context, adminID uint64) bool {
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).Preload("Plan").First(&admin, adminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query admin failed"})
		return false
	}
	if admin.Plan == nil {
		return true
	}
	var owned int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.Shop{}).Where("admin_id = ?", adminID).Count(&owned).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query shops failed"})
		return false
	}
	if owned >= int64(admin.Plan.MaxShops) {
		c.JSON(http.StatusForbidden, gin.H{"error": "plan shop limit reached"})
		return false
	}
	return true
}

func shopResponse(shop *models.Shop) gin.H {
	return gin.H{
		"id":              shop.ID,
		"admin_id":        shop.AdminID,
		"name":            shop.Name,
		"slug":            shop.Slug,
		"branding":        shop.Branding,
		"guaranteed_win":  shop.GuaranteedWin,
		"winning_percent": shop.WinningPercent,
		"active":          shop.Active,
	}
}

func marshalStringList(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	raw, errMarshal := json.Marshal(values)
	if errMarshal != nil {
		return nil, errMarshal
	}
	return datatypes.JSON(raw), nil
}

func marshalJSONField(value map[string]any) (datatypes.JSON, error) {
	if value == nil {
		return datatypes.JSON([]byte("{}")), nil
	}
	raw, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return nil, errMarshal
	}
	return datatypes.JSON(raw), nil
}
