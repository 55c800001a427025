package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/config"
	"github.com/amira30til/ScanToWin-sub001/internal/http/api/admin/permissions"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

// loginRequest defines the request body for admin login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an admin and issues a JWT when MFA is not enrolled.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	password := strings.TrimSpace(body.Password)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing username or password"})
		return
	}

	admin, ok := h.verifyCredentials(c, username, password)
	if !ok {
		return
	}

	if strings.TrimSpace(admin.TOTPSecret) != "" {
		c.JSON(http.StatusOK, gin.H{"totp_required": true})
		return
	}

	h.respondWithToken(c, admin)
}

// loginTOTPRequest defines the request body for the TOTP login step.
type loginTOTPRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// LoginTOTP completes login for TOTP-enrolled admins.
func (h *AuthHandler) LoginTOTP(c *gin.Context) {
	var body loginTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	admin, ok := h.verifyCredentials(c, strings.TrimSpace(body.Username), strings.TrimSpace(body.Password))
	if !ok {
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not enrolled"})
		return
	}
	if !security.ValidateTOTP(body.Code, admin.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}

	h.respondWithToken(c, admin)
}

// Me returns the authenticated admin's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).Preload("Plan").First(&admin, getAdminID(c)).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
		return
	}
	out := gin.H{
		"id":             admin.ID,
		"username":       admin.Username,
		"email":          admin.Email,
		"is_super_admin": admin.IsSuperAdmin,
		"permissions":    permissions.Parse(admin.Permissions),
		"totp_enrolled":  strings.TrimSpace(admin.TOTPSecret) != "",
	}
	if admin.Plan != nil {
		out["plan"] = gin.H{
			"id":   admin.Plan.ID,
			"name": admin.Plan.Name,
		}
	}
	c.JSON(http.StatusOK, out)
}

// PrepareTOTP generates a pending TOTP secret for the admin.
func (h *AuthHandler) PrepareTOTP(c *gin.Context) {
	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, getAdminID(c)).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "totp already enrolled"})
		return
	}

	secret, url, errGenerate := security.GenerateTOTPSecret(admin.Username)
	if errGenerate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate totp failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": secret, "url": url})
}

// confirmTOTPRequest defines the request body for TOTP enrollment.
type confirmTOTPRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// ConfirmTOTP stores the TOTP secret after a successful code check.
func (h *AuthHandler) ConfirmTOTP(c *gin.Context) {
	var body confirmTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	secret := strings.TrimSpace(body.Secret)
	if secret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing secret"})
		return
	}
	if !security.ValidateTOTP(body.Code, secret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Admin{}).
		Where("id = ?", getAdminID(c)).
		Updates(map[string]any{"totp_secret": secret, "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save totp failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// disableTOTPRequest defines the request body for disabling TOTP.
type disableTOTPRequest struct {
	Code string `json:"code"`
}

// DisableTOTP clears the TOTP secret after a final code check.
func (h *AuthHandler) DisableTOTP(c *gin.Context) {
	var body disableTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).First(&admin, getAdminID(c)).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
		return
	}
	if strings.TrimSpace(admin.TOTPSecret) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not enrolled"})
		return
	}
	if !security.ValidateTOTP(body.Code, admin.TOTPSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&admin).
		Updates(map[string]any{"totp_secret": "", "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "disable totp failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// verifyCredentials checks username and password, writing the error
// response itself on failure.
func (h *AuthHandler) verifyCredentials(c *gin.Context, username, password string) (*models.Admin, bool) {
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing username or password"})
		return nil, false
	}

	var admin models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).Where("username = ?", username).First(&admin).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if !admin.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
		return nil, false
	}
	if !security.CheckPassword(admin.Password, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return nil, false
	}
	return &admin, true
}

func (h *AuthHandler) respondWithToken(c *gin.Context, admin *models.Admin) {
	token, errToken := security.GenerateAdminToken(h.jwtCfg.Secret, admin.ID, admin.Username, admin.IsSuperAdmin, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"admin_id":       admin.ID,
		"username":       admin.Username,
		"is_super_admin": admin.IsSuperAdmin,
	})
}
