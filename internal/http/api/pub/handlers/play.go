package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/play"
)

// PlayHandler handles play submission, cooldown pre-flight, and redemption.
type PlayHandler struct {
	db     *gorm.DB
	engine *play.Engine
}

// NewPlayHandler constructs a PlayHandler.
func NewPlayHandler(db *gorm.DB, engine *play.Engine) *PlayHandler {
	return &PlayHandler{db: db, engine: engine}
}

// submitRequest defines the request body for play submission.
type submitRequest struct {
	ShopID   uint64 `json:"shop_id"`
	ShopSlug string `json:"shop_slug"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Tel       string `json:"tel"`

	AgreeToPromotions bool `json:"agree_to_promotions"`

	ActionID *uint64 `json:"action_id"`
}

// Submit runs one play. Success is 201 for a first-ever player and 200
// for a returning one; a cooldown rejection is 429 with a structured body
// so the client can render a countdown.
func (h *PlayHandler) Submit(c *gin.Context) {
	var body submitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}
	if strings.TrimSpace(body.FirstName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing first_name"})
		return
	}

	shopID := body.ShopID
	if shopID == 0 && strings.TrimSpace(body.ShopSlug) != "" {
		var shop models.Shop
		if errFind := h.db.WithContext(c.Request.Context()).Where("slug = ?", strings.TrimSpace(body.ShopSlug)).First(&shop).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		shopID = shop.ID
	}
	if shopID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing shop_id"})
		return
	}

	result, errSubmit := h.engine.Submit(c.Request.Context(), play.SubmitInput{
		ShopID:            shopID,
		Email:             body.Email,
		FirstName:         body.FirstName,
		LastName:          body.LastName,
		Tel:               body.Tel,
		AgreeToPromotions: body.AgreeToPromotions,
		ActionID:          body.ActionID,
	})
	if errSubmit != nil {
		switch {
		case errors.Is(errSubmit, play.ErrShopNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
		case errors.Is(errSubmit, play.ErrActionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "action not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "play failed"})
		}
		return
	}

	switch result.Status {
	case play.StatusCooldown:
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":         play.CodeCooldown,
			"message":      "you already played here, come back later",
			"retry_at":     result.Cooldown.RetryAt,
			"remaining_ms": result.Cooldown.Remaining.Milliseconds(),
		})
	case play.StatusNoActiveGame:
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    play.CodeNoActiveGame,
			"message": "no active game for this shop",
		})
	case play.StatusInProgress:
		c.JSON(http.StatusConflict, gin.H{
			"code":    play.CodeInProgress,
			"message": "a play for this player is already in progress",
		})
	default:
		status := http.StatusOK
		if result.PlayerCreated {
			status = http.StatusCreated
		}
		out := gin.H{
			"outcome":   string(result.Status),
			"player_id": result.Player.ID,
		}
		if result.Status == play.StatusWon {
			out["reward"] = gin.H{
				"id":          result.Reward.ID,
				"name":        result.Reward.Name,
				"description": result.Reward.Description,
			}
			out["redemption_code"] = result.Event.RedemptionCode
			out["valid_until"] = result.Event.ValidUntil
		}
		c.JSON(status, out)
	}
}

// Verify pre-flights the cooldown state before the client renders the
// play UI.
func (h *PlayHandler) Verify(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}
	shopID, errParse := strconv.ParseUint(strings.TrimSpace(c.Query("shop_id")), 10, 64)
	if errParse != nil || shopID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing shop_id"})
		return
	}

	info, errVerify := h.engine.Verify(c.Request.Context(), shopID, email)
	if errVerify != nil {
		if errors.Is(errVerify, play.ErrShopNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verify failed"})
		return
	}
	if info == nil {
		c.JSON(http.StatusOK, gin.H{"can_play": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"can_play":     false,
		"code":         play.CodeCooldown,
		"retry_at":     info.RetryAt,
		"remaining_ms": info.Remaining.Milliseconds(),
	})
}

// redeemRequest defines the request body for in-store redemption.
type redeemRequest struct {
	Code string `json:"code"`
	PIN  string `json:"pin"`
}

// Redeem marks a won prize redeemed after the staff PIN check.
func (h *PlayHandler) Redeem(c *gin.Context) {
	var body redeemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	event, errRedeem := h.engine.Redeem(c.Request.Context(), body.Code, body.PIN)
	if errRedeem != nil {
		switch {
		case errors.Is(errRedeem, play.ErrCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "redemption code not found"})
		case errors.Is(errRedeem, play.ErrInvalidPIN):
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid pin"})
		case errors.Is(errRedeem, play.ErrAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{"error": "already redeemed"})
		case errors.Is(errRedeem, play.ErrRewardExpired):
			c.JSON(http.StatusGone, gin.H{"error": "reward expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "redeem failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"redeemed_at": event.RedeemedAt,
		"reward_id":   event.RewardID,
		"player_id":   event.PlayerID,
	})
}
