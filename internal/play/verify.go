package play

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// Verify pre-flights the cooldown gate for a (shop, email) pair without
// writing anything. A nil CooldownInfo means the player may play now;
// an unknown email is always allowed. An unknown or inactive shop is
// ErrShopNotFound, matching Submit.
func (e *Engine) Verify(ctx context.Context, shopID uint64, email string) (*CooldownInfo, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("play: missing email")
	}

	var shop models.Shop
	if errFind := e.db.WithContext(ctx).Select("id").Where("id = ? AND active = ?", shopID, true).First(&shop).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("play: load shop: %w", errFind)
	}

	var player models.Player
	if errFind := e.db.WithContext(ctx).Where("email = ?", normalized).First(&player).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("play: load player: %w", errFind)
	}

	var history models.PlayerGameHistory
	errHistory := e.db.WithContext(ctx).
		Where("player_id = ? AND shop_id = ?", player.ID, shopID).
		Order("last_played_at DESC").
		First(&history).Error
	if errHistory != nil {
		if errors.Is(errHistory, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("play: load history: %w", errHistory)
	}

	cooldown := e.Cooldown()
	elapsed := e.now().Sub(history.LastPlayedAt)
	if elapsed >= cooldown {
		return nil, nil
	}
	return &CooldownInfo{
		RetryAt:   history.LastPlayedAt.Add(cooldown),
		Remaining: cooldown - elapsed,
	}, nil
}
