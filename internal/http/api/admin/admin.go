package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/config"
	"github.com/amira30til/ScanToWin-sub001/internal/http/api/admin/handlers"
	"github.com/amira30til/ScanToWin-sub001/internal/http/api/admin/permissions"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

// RegisterAdminRoutes registers the tenant and super-admin API.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/api/v1/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/auth/login", authHandler.Login)
	group.POST("/auth/login/totp", authHandler.LoginTOTP)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/totp/prepare", authHandler.PrepareTOTP)
	authed.POST("/auth/totp/confirm", authHandler.ConfirmTOTP)
	authed.POST("/auth/totp/disable", authHandler.DisableTOTP)

	adminHandler := handlers.NewAdminHandler(db)
	superOnly := authed.Group("")
	superOnly.Use(requireSuperAdmin())
	superOnly.POST("/admins", adminHandler.Create)
	superOnly.GET("/admins", adminHandler.List)
	superOnly.PUT("/admins/:id", adminHandler.Update)
	superOnly.DELETE("/admins/:id", adminHandler.Delete)

	planHandler := handlers.NewPlanHandler(db)
	superOnly.POST("/plans", planHandler.Create)
	superOnly.PUT("/plans/:id", planHandler.Update)
	superOnly.DELETE("/plans/:id", planHandler.Delete)
	authed.GET("/plans", planHandler.List)

	settingsHandler := handlers.NewSettingsHandler(db)
	superOnly.GET("/settings", settingsHandler.Get)
	superOnly.PUT("/settings", settingsHandler.Put)

	gameHandler := handlers.NewGameHandler(db)
	superOnly.POST("/games", gameHandler.Create)
	superOnly.PUT("/games/:id", gameHandler.Update)
	superOnly.DELETE("/games/:id", gameHandler.Delete)
	authed.GET("/games", requirePermission(permissions.PermGames), gameHandler.List)

	shopHandler := handlers.NewShopHandler(db)
	authed.POST("/shops", requirePermission(permissions.PermShops), shopHandler.Create)
	authed.GET("/shops", requirePermission(permissions.PermShops), shopHandler.List)
	authed.GET("/shops/:id", requirePermission(permissions.PermShops), shopHandler.Get)
	authed.PUT("/shops/:id", requirePermission(permissions.PermShops), shopHandler.Update)
	authed.DELETE("/shops/:id", requirePermission(permissions.PermShops), shopHandler.Delete)
	authed.GET("/shops/:id/stats", requirePermission(permissions.PermEvents), shopHandler.Stats)
	authed.GET("/shops/:id/events", requirePermission(permissions.PermEvents), shopHandler.Events)

	assignmentHandler := handlers.NewAssignmentHandler(db)
	authed.POST("/shops/:id/assignments", requirePermission(permissions.PermAssignments), assignmentHandler.Create)
	authed.GET("/shops/:id/assignments", requirePermission(permissions.PermAssignments), assignmentHandler.List)
	authed.POST("/assignments/:id/activate", requirePermission(permissions.PermAssignments), assignmentHandler.Activate)
	authed.POST("/assignments/:id/deactivate", requirePermission(permissions.PermAssignments), assignmentHandler.Deactivate)

	actionHandler := handlers.NewActionHandler(db)
	authed.POST("/shops/:id/actions", requirePermission(permissions.PermActions), actionHandler.Create)
	authed.GET("/shops/:id/actions", requirePermission(permissions.PermActions), actionHandler.List)
	authed.PUT("/actions/:id", requirePermission(permissions.PermActions), actionHandler.Update)
	authed.DELETE("/actions/:id", requirePermission(permissions.PermActions), actionHandler.Delete)

	rewardHandler := handlers.NewRewardHandler(db)
	authed.POST("/shops/:id/rewards", requirePermission(permissions.PermRewards), rewardHandler.Create)
	authed.GET("/shops/:id/rewards", requirePermission(permissions.PermRewards), rewardHandler.List)
	authed.PUT("/rewards/:id", requirePermission(permissions.PermRewards), rewardHandler.Update)
	authed.DELETE("/rewards/:id", requirePermission(permissions.PermRewards), rewardHandler.Delete)

	playerHandler := handlers.NewPlayerHandler(db)
	authed.GET("/players", requirePermission(permissions.PermPlayers), playerHandler.List)
	authed.GET("/players/:id", requirePermission(permissions.PermPlayers), playerHandler.Get)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("adminIsSuperAdmin", admin.IsSuperAdmin)
		c.Set("adminPermissions", permissions.Parse(admin.Permissions))
		c.Next()
	}
}

// requireSuperAdmin rejects non-super admins.
func requireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isSuperAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

// requirePermission rejects admins missing the given permission key.
// Super admins always pass.
func requirePermission(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSuperAdmin(c) {
			c.Next()
			return
		}
		granted, _ := c.Get("adminPermissions")
		grantedList, ok := granted.([]string)
		if !ok || !permissions.Has(grantedList, key) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

func isSuperAdmin(c *gin.Context) bool {
	value, ok := c.Get("adminIsSuperAdmin")
	if !ok {
		return false
	}
	flag, _ := value.(bool)
	return flag
}
