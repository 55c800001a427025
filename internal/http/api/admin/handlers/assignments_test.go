package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

func createShopFor(t *testing.T, conn *gorm.DB, adminID uint64, slug string) models.Shop {
	t.Helper()
	pinHash, errPin := security.HashPIN("1234")
	if errPin != nil {
		t.Fatalf("hash pin: %v", errPin)
	}
	shop := models.Shop{AdminID: adminID, Name: "Shop " + slug, Slug: slug, WinningPercent: 50, PINHash: pinHash, Active: true}
	if errCreate := conn.Create(&shop).Error; errCreate != nil {
		t.Fatalf("create shop: %v", errCreate)
	}
	return shop
}

func createGame(t *testing.T, conn *gorm.DB, name string) models.Game {
	t.Helper()
	game := models.Game{Name: name, Kind: models.GameKindWheel, Active: true}
	if errCreate := conn.Create(&game).Error; errCreate != nil {
		t.Fatalf("create game: %v", errCreate)
	}
	return game
}

func assignmentRouter(conn *gorm.DB, admin models.Admin) *gin.Engine {
	router := gin.New()
	handler := NewAssignmentHandler(conn)
	group := router.Group("/", asAdmin(admin))
	group.POST("/shops/:id/assignments", handler.Create)
	group.GET("/shops/:id/assignments", handler.List)
	group.POST("/assignments/:id/activate", handler.Activate)
	group.POST("/assignments/:id/deactivate", handler.Deactivate)
	return router
}

func TestAssignmentCreateAndActivateSwap(t *testing.T) {
	conn := setupAdminDB(t)
	admin := createAdmin(t, conn, "owner", "s3cret-pass", false)
	shop := createShopFor(t, conn, admin.ID, "swap-shop")
	wheel := createGame(t, conn, "Wheel")
	scratch := createGame(t, conn, "Scratch")

	router := assignmentRouter(conn, admin)

	w := doJSON(t, router, http.MethodPost, "/shops/1/assignments", map[string]any{"game_id": wheel.ID, "activate": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var first struct {
		ID       uint64 `json:"id"`
		IsActive bool   `json:"is_active"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &first); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if !first.IsActive {
		t.Fatalf("expected first assignment active")
	}

	w = doJSON(t, router, http.MethodPost, "/shops/1/assignments", map[string]any{"game_id": scratch.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var second struct {
		ID       uint64 `json:"id"`
		IsActive bool   `json:"is_active"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &second); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if second.IsActive {
		t.Fatalf("expected second assignment inactive until activated")
	}

	// Activating the second one must swap the active flag, never stack it.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/assignments/%d/activate", second.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var active []models.GameAssignment
	if errFind := conn.Where("shop_id = ? AND is_active = ?", shop.ID, true).Find(&active).Error; errFind != nil {
		t.Fatalf("load assignments: %v", errFind)
	}
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("expected only the second assignment active, got %+v", active)
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/assignments/%d/deactivate", second.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var count int64
	if errCount := conn.Model(&models.GameAssignment{}).Where("shop_id = ? AND is_active = ?", shop.ID, true).Count(&count).Error; errCount != nil {
		t.Fatalf("count active: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no active assignment, got %d", count)
	}
}

func TestAssignmentScheduledWindow(t *testing.T) {
	conn := setupAdminDB(t)
	admin := createAdmin(t, conn, "owner", "s3cret-pass", false)
	createShopFor(t, conn, admin.ID, "window-shop")
	wheel := createGame(t, conn, "Wheel")

	router := assignmentRouter(conn, admin)

	starts := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	ends := starts.Add(48 * time.Hour)
	w := doJSON(t, router, http.MethodPost, "/shops/1/assignments", map[string]any{
		"game_id":   wheel.ID,
		"starts_at": starts,
		"ends_at":   ends,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var stored models.GameAssignment
	if errFind := conn.First(&stored).Error; errFind != nil {
		t.Fatalf("load assignment: %v", errFind)
	}
	if stored.StartsAt == nil || !stored.StartsAt.Equal(starts) {
		t.Fatalf("expected starts_at %v, got %v", starts, stored.StartsAt)
	}
	if stored.EndsAt == nil || !stored.EndsAt.Equal(ends) {
		t.Fatalf("expected ends_at %v, got %v", ends, stored.EndsAt)
	}
}

func TestAssignmentTenantIsolation(t *testing.T) {
	conn := setupAdminDB(t)
	owner := createAdmin(t, conn, "owner", "s3cret-pass", false)
	intruder := createAdmin(t, conn, "intruder", "s3cret-pass", false)
	createShopFor(t, conn, owner.ID, "private-shop")
	wheel := createGame(t, conn, "Wheel")

	ownerRouter := assignmentRouter(conn, owner)
	w := doJSON(t, ownerRouter, http.MethodPost, "/shops/1/assignments", map[string]any{"game_id": wheel.ID, "activate": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	intruderRouter := assignmentRouter(conn, intruder)
	w = doJSON(t, intruderRouter, http.MethodPost, "/shops/1/assignments", map[string]any{"game_id": wheel.ID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign shop, got %d", w.Code)
	}
	w = doJSON(t, intruderRouter, http.MethodPost, "/assignments/1/activate", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign assignment, got %d", w.Code)
	}
}

func TestAssignmentUnknownGame(t *testing.T) {
	conn := setupAdminDB(t)
	admin := createAdmin(t, conn, "owner", "s3cret-pass", false)
	createShopFor(t, conn, admin.ID, "lonely-shop")

	router := assignmentRouter(conn, admin)
	w := doJSON(t, router, http.MethodPost, "/shops/1/assignments", map[string]any{"game_id": 99})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", w.Code, w.Body.String())
	}
}
