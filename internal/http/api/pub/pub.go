package pub

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/http/api/pub/handlers"
	"github.com/amira30til/ScanToWin-sub001/internal/play"
	"github.com/amira30til/ScanToWin-sub001/internal/reward"
)

// RegisterPublicRoutes registers the customer-facing play and redeem routes.
func RegisterPublicRoutes(r *gin.Engine, conn *gorm.DB, engine *play.Engine, drawer *reward.Drawer) {
	if r == nil || conn == nil || engine == nil {
		return
	}

	api := r.Group("/api/v1")

	shopHandler := handlers.NewShopHandler(conn)
	api.GET("/shops/:slug", shopHandler.GetBySlug)
	api.POST("/shops/:slug/preview-draw", handlers.NewPreviewHandler(conn, drawer).Draw)

	playHandler := handlers.NewPlayHandler(conn, engine)
	api.POST("/play", playHandler.Submit)
	api.GET("/play/verify", playHandler.Verify)
	api.POST("/redeem", playHandler.Redeem)
}
