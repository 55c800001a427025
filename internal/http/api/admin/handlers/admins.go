package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbutil "github.com/amira30til/ScanToWin-sub001/internal/db"
	"github.com/amira30til/ScanToWin-sub001/internal/http/api/admin/permissions"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

// AdminHandler manages admin account endpoints (super-admin only).
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// createAdminRequest defines the request body for admin creation.
type createAdminRequest struct {
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Permissions  []string `json:"permissions"`
	IsSuperAdmin bool     `json:"is_super_admin"`
	PlanID       *uint64  `json:"plan_id"`
}

// Create creates a new admin account.
func (h *AdminHandler) Create(c *gin.Context) {
	var body createAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing username"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing password"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	normalized := permissions.Normalize(body.Permissions)
	if errValidate := permissions.Validate(normalized); errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid permissions"})
		return
	}
	permissionsJSON, errMarshal := permissions.Marshal(normalized)
	if errMarshal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "marshal permissions failed"})
		return
	}

	if body.PlanID == nil {
		var defaultPlan models.SubscriptionPlan
		if errFind := h.db.WithContext(c.Request.Context()).Where("is_default = ?", true).First(&defaultPlan).Error; errFind == nil {
			body.PlanID = &defaultPlan.ID
		} else if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query default plan failed"})
			return
		}
	}

	now := time.Now().UTC()
	admin := models.Admin{
		Username:     username,
		Email:        email,
		Password:     hash,
		Active:       true,
		IsSuperAdmin: body.IsSuperAdmin,
		Permissions:  datatypes.JSON(permissionsJSON),
		PlanID:       body.PlanID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&admin).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create admin failed"})
		return
	}
	c.JSON(http.StatusCreated, adminResponse(&admin))
}

// List returns admin accounts with optional filters.
func (h *AdminHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Admin{})
	if usernameQ := strings.TrimSpace(c.Query("username")); usernameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+usernameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "username"), pattern)
	}

	var rows []models.Admin
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list admins failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, adminResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"admins": out})
}

// updateAdminRequest defines the request body for admin updates.
type updateAdminRequest struct {
	Password    *string   `json:"password"`
	Active      *bool     `json:"active"`
	Permissions *[]string `json:"permissions"`
	PlanID      *uint64   `json:"plan_id"`
}

// Update modifies an admin account.
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body updateAdminRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Password != nil && strings.TrimSpace(*body.Password) != "" {
		hash, errHash := security.HashPassword(strings.TrimSpace(*body.Password))
		if errHash != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
			return
		}
		updates["password"] = hash
	}
	if body.Active != nil {
		updates["active"] = *body.Active
	}
	if body.Permissions != nil {
		normalized := permissions.Normalize(*body.Permissions)
		if errValidate := permissions.Validate(normalized); errValidate != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid permissions"})
			return
		}
		permissionsJSON, errMarshal := permissions.Marshal(normalized)
		if errMarshal != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "marshal permissions failed"})
			return
		}
		updates["permissions"] = datatypes.JSON(permissionsJSON)
	}
	if body.PlanID != nil {
		updates["plan_id"] = *body.PlanID
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&admin).Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update admin failed"})
		return
	}
	c.JSON(http.StatusOK, adminResponse(&admin))
}

// Delete removes an admin account.
func (h *AdminHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if id == getAdminID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete yourself"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Admin{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete admin failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func adminResponse(admin *models.Admin) gin.H {
	return gin.H{
		"id":             admin.ID,
		"username":       admin.Username,
		"email":          admin.Email,
		"active":         admin.Active,
		"is_super_admin": admin.IsSuperAdmin,
		"permissions":    permissions.Parse(admin.Permissions),
		"plan_id":        admin.PlanID,
	}
}
