package play

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	dbutil "github.com/amira30til/ScanToWin-sub001/internal/db"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

// Redemption errors.
var (
	// ErrCodeNotFound indicates an unknown redemption code.
	ErrCodeNotFound = errors.New("redemption code not found")
	// ErrInvalidPIN indicates a wrong shop PIN.
	ErrInvalidPIN = errors.New("invalid pin")
	// ErrAlreadyRedeemed indicates the code was redeemed before.
	ErrAlreadyRedeemed = errors.New("already redeemed")
	// ErrRewardExpired indicates the prize's validity window has passed.
	ErrRewardExpired = errors.New("reward expired")
)

// Redeem marks a won play event redeemed after verifying the shop staff
// PIN. The event row is locked so a code cannot be redeemed twice.
func (e *Engine) Redeem(ctx context.Context, code, pin string) (*models.PlayEvent, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("play: missing redemption code")
	}
	if strings.TrimSpace(pin) == "" {
		return nil, fmt.Errorf("play: missing pin")
	}

	var redeemed models.PlayEvent
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.PlayEvent
		if errFind := dbutil.LockForUpdate(tx).
			Where("redemption_code = ? AND outcome = ?", code, models.OutcomeWon).
			First(&event).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("play: load event: %w", errFind)
		}

		var shop models.Shop
		if errFind := tx.First(&shop, event.ShopID).Error; errFind != nil {
			return fmt.Errorf("play: load shop: %w", errFind)
		}
		if !security.CheckPIN(shop.PINHash, strings.TrimSpace(pin)) {
			return ErrInvalidPIN
		}

		now := e.now()
		if event.RedeemedAt != nil {
			return ErrAlreadyRedeemed
		}
		if event.ValidUntil != nil && now.After(*event.ValidUntil) {
			return ErrRewardExpired
		}

		if errUpdate := tx.Model(&event).Update("redeemed_at", now).Error; errUpdate != nil {
			return fmt.Errorf("play: mark redeemed: %w", errUpdate)
		}
		event.RedeemedAt = &now
		redeemed = event
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &redeemed, nil
}
