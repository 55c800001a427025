package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// getAdminID extracts the admin ID from gin context.
func getAdminID(c *gin.Context) uint64 {
	val, exists := c.Get("adminID")
	if !exists {
		return 0
	}
	id, _ := val.(uint64)
	return id
}

// isSuperAdmin extracts the super-admin flag from gin context.
func isSuperAdmin(c *gin.Context) bool {
	val, exists := c.Get("adminIsSuperAdmin")
	if !exists {
		return false
	}
	flag, _ := val.(bool)
	return flag
}

// paramID parses a numeric path parameter.
func paramID(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// pagination reads page/page_size query parameters with sane bounds.
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

// loadOwnedShop loads a shop and enforces tenant ownership: non-super
// admins only reach their own shops. Writes the error response itself and
// returns false on failure.
func loadOwnedShop(c *gin.Context, db *gorm.DB, shopID uint64) (*models.Shop, bool) {
	var shop models.Shop
	if errFind := db.WithContext(c.Request.Context()).First(&shop, shopID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if !isSuperAdmin(c) && shop.AdminID != getAdminID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return nil, false
	}
	return &shop, true
}
