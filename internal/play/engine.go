package play

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	dbutil "github.com/amira30til/ScanToWin-sub001/internal/db"
	"github.com/amira30til/ScanToWin-sub001/internal/lock"
	"github.com/amira30til/ScanToWin-sub001/internal/mail"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/reward"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
	"github.com/amira30til/ScanToWin-sub001/internal/settings"
)

// SubmitInput carries one play submission.
type SubmitInput struct {
	ShopID uint64

	Email     string
	FirstName string
	LastName  string
	Tel       string

	AgreeToPromotions bool

	ActionID *uint64
}

// Engine runs the play eligibility and reward assignment workflow: active
// game lookup, player resolution, cooldown gate, reward draw, play
// recording, best-effort notification.
type Engine struct {
	db       *gorm.DB
	drawer   *reward.Drawer
	notifier mail.Notifier
	playLock *lock.PlayLock
	cooldown time.Duration

	// now is a test seam.
	now func() time.Time
	// syncNotify makes notification synchronous; tests only.
	syncNotify bool
}

// NewEngine constructs an Engine. playLock may be nil.
func NewEngine(conn *gorm.DB, drawer *reward.Drawer, notifier mail.Notifier, playLock *lock.PlayLock, cooldown time.Duration) *Engine {
	if notifier == nil {
		notifier = mail.LogNotifier{}
	}
	return &Engine{
		db:       conn,
		drawer:   drawer,
		notifier: notifier,
		playLock: playLock,
		cooldown: cooldown,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Cooldown returns the effective cooldown window: the platform setting
// when present, the configured default otherwise.
func (e *Engine) Cooldown() time.Duration {
	if hours := settings.IntValue(settings.CooldownHoursKey, 0); hours > 0 {
		return time.Duration(hours) * time.Hour
	}
	return e.cooldown
}

// NormalizeEmail trims and lower-cases a player email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Submit runs one play. Business-rule rejections (cooldown, no active
// game, duplicate in-flight play) come back as Result statuses; only
// validation and infrastructure failures return an error.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (*Result, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("play: missing email")
	}
	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return nil, fmt.Errorf("play: missing first name")
	}

	var shop models.Shop
	if errFind := e.db.WithContext(ctx).Where("id = ? AND active = ?", in.ShopID, true).First(&shop).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("play: load shop: %w", errFind)
	}

	// The active assignment is resolved before any write so a play
	// against a dormant shop never creates a player record.
	var assignment models.GameAssignment
	if errFind := e.db.WithContext(ctx).Where("shop_id = ? AND is_active = ?", shop.ID, true).First(&assignment).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return &Result{Status: StatusNoActiveGame}, nil
		}
		return nil, fmt.Errorf("play: load assignment: %w", errFind)
	}

	if in.ActionID != nil {
		var action models.Action
		if errFind := e.db.WithContext(ctx).Where("id = ? AND shop_id = ? AND active = ?", *in.ActionID, shop.ID, true).First(&action).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return nil, ErrActionNotFound
			}
			return nil, fmt.Errorf("play: load action: %w", errFind)
		}
	}

	acquired, errLock := e.playLock.Acquire(ctx, shop.ID, email)
	if errLock != nil {
		log.WithError(errLock).Warn("play lock unavailable, continuing without it")
	}
	if !acquired {
		return &Result{Status: StatusInProgress}, nil
	}
	defer e.playLock.Release(ctx, shop.ID, email)

	result := &Result{}
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return e.submitTx(tx, &shop, &assignment, in, email, firstName, result)
	})
	if errTx != nil {
		if errors.Is(errTx, errCooldownAbort) {
			return result, nil
		}
		if errors.Is(errTx, errHistoryRace) {
			// A concurrent first play for the same tuple committed between
			// our gate check and our insert. Report it as a cooldown.
			now := e.now()
			result.Status = StatusCooldown
			result.Cooldown = &CooldownInfo{RetryAt: now.Add(e.Cooldown()), Remaining: e.Cooldown()}
			return result, nil
		}
		return nil, errTx
	}

	if result.Status == StatusWon {
		e.notifyWon(&shop, result)
	}
	return result, nil
}

// submitTx holds every write of one play in a single transaction, with
// the history row locked so concurrent submissions for the same pair
// serialize on the cooldown check.
func (e *Engine) submitTx(tx *gorm.DB, shop *models.Shop, assignment *models.GameAssignment, in SubmitInput, email, firstName string, result *Result) error {
	now := e.now()

	var player models.Player
	errFind := dbutil.LockForUpdate(tx).Where("email = ?", email).First(&player).Error
	switch {
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		player = models.Player{
			Email:             email,
			FirstName:         firstName,
			LastName:          strings.TrimSpace(in.LastName),
			Tel:               strings.TrimSpace(in.Tel),
			AgreeToPromotions: in.AgreeToPromotions,
		}
		if errCreate := tx.Create(&player).Error; errCreate != nil {
			return fmt.Errorf("play: create player: %w", errCreate)
		}
		result.PlayerCreated = true
	case errFind != nil:
		return fmt.Errorf("play: load player: %w", errFind)
	}

	// Cooldown gate. The newest history row for (player, shop) across all
	// games carries the authoritative last-played timestamp. The row is
	// locked so a concurrent play waits here and re-reads the new value.
	var history models.PlayerGameHistory
	errHistory := dbutil.LockForUpdate(tx).
		Where("player_id = ? AND shop_id = ?", player.ID, shop.ID).
		Order("last_played_at DESC").
		First(&history).Error
	if errHistory != nil && !errors.Is(errHistory, gorm.ErrRecordNotFound) {
		return fmt.Errorf("play: load history: %w", errHistory)
	}
	cooldown := e.Cooldown()
	if errHistory == nil {
		elapsed := now.Sub(history.LastPlayedAt)
		if elapsed < cooldown {
			result.Status = StatusCooldown
			result.Player = &player
			result.Cooldown = &CooldownInfo{
				RetryAt:   history.LastPlayedAt.Add(cooldown),
				Remaining: cooldown - elapsed,
			}
			// Nothing was written before the gate: a player with history
			// cannot be new, so the rollback is a no-op and the attempt
			// stays write-free.
			return errCooldownAbort
		}
	}

	won := e.drawer.Wins(shop)
	var prize *models.Reward
	if won {
		var errPrize error
		prize, errPrize = e.reservePrize(tx, shop.ID)
		if errPrize != nil {
			return errPrize
		}
		won = prize != nil
	}

	// Upsert the per-(player, shop, game) history row.
	var tupleHistory models.PlayerGameHistory
	errTuple := tx.Where("player_id = ? AND shop_id = ? AND game_id = ?", player.ID, shop.ID, assignment.GameID).
		First(&tupleHistory).Error
	switch {
	case errors.Is(errTuple, gorm.ErrRecordNotFound):
		tupleHistory = models.PlayerGameHistory{
			PlayerID:     player.ID,
			ShopID:       shop.ID,
			GameID:       assignment.GameID,
			PlayCount:    1,
			LastPlayedAt: now,
		}
		if prize != nil {
			tupleHistory.LastRewardID = &prize.ID
		}
		if errCreate := tx.Create(&tupleHistory).Error; errCreate != nil {
			// Only the (player, shop, game) unique index identifies a lost
			// race; any other constraint violation is a real error.
			if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
				return errHistoryRace
			}
			return fmt.Errorf("play: create history: %w", errCreate)
		}
	case errTuple != nil:
		return fmt.Errorf("play: load tuple history: %w", errTuple)
	default:
		updates := map[string]any{
			"play_count":     gorm.Expr("play_count + 1"),
			"last_played_at": now,
			"updated_at":     now,
		}
		if prize != nil {
			updates["last_reward_id"] = prize.ID
		}
		if errUpdate := tx.Model(&tupleHistory).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("play: update history: %w", errUpdate)
		}
	}

	if errCount := tx.Model(&player).Updates(map[string]any{
		"total_played_games": gorm.Expr("total_played_games + 1"),
		"updated_at":         now,
	}).Error; errCount != nil {
		return fmt.Errorf("play: bump player counter: %w", errCount)
	}

	if in.ActionID != nil {
		if errHit := tx.Model(&models.Action{}).Where("id = ?", *in.ActionID).
			Update("scan_hits", gorm.Expr("scan_hits + 1")).Error; errHit != nil {
			return fmt.Errorf("play: bump action counter: %w", errHit)
		}
	}

	event := models.PlayEvent{
		PlayerID:     player.ID,
		ShopID:       shop.ID,
		GameID:       assignment.GameID,
		AssignmentID: assignment.ID,
		ActionID:     in.ActionID,
		Outcome:      models.OutcomeLost,
		CreatedAt:    now,
	}
	if won {
		code, errCode := security.NewRedemptionCode()
		if errCode != nil {
			return fmt.Errorf("play: %w", errCode)
		}
		validUntil := now.AddDate(0, 0, prize.ValidDays)
		event.Outcome = models.OutcomeWon
		event.RewardID = &prize.ID
		event.RedemptionCode = code
		event.ValidUntil = &validUntil
	}
	if errCreate := tx.Create(&event).Error; errCreate != nil {
		return fmt.Errorf("play: create event: %w", errCreate)
	}

	if won {
		result.Status = StatusWon
		result.Reward = prize
	} else {
		result.Status = StatusLost
	}
	result.Player = &player
	result.Event = &event
	return nil
}

// errCooldownAbort rolls back the transaction after a cooldown rejection
// was recorded on the result. It never reaches callers.
var errCooldownAbort = errors.New("play: cooldown abort")

// errHistoryRace marks a duplicate-key rejection on the history tuple:
// a concurrent first play for the same (player, shop, game) won the insert.
var errHistoryRace = errors.New("play: history tuple race")

// reservePrize draws a prize and decrements its quota with a conditional
// update. A reward exhausted by a concurrent play is dropped from the pool
// and the weighted draw repeats over the remainder.
func (e *Engine) reservePrize(tx *gorm.DB, shopID uint64) (*models.Reward, error) {
	var rewards []models.Reward
	if errFind := tx.Where("shop_id = ? AND active = ?", shopID, true).Find(&rewards).Error; errFind != nil {
		return nil, fmt.Errorf("play: load rewards: %w", errFind)
	}

	for len(rewards) > 0 {
		picked := e.drawer.PickWeighted(rewards)
		if picked == nil {
			return nil, nil
		}
		if picked.Unlimited {
			return picked, nil
		}
		res := tx.Model(&models.Reward{}).
			Where("id = ? AND remaining > 0", picked.ID).
			Update("remaining", gorm.Expr("remaining - 1"))
		if res.Error != nil {
			return nil, fmt.Errorf("play: reserve reward: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			picked.Remaining--
			return picked, nil
		}
		// Quota raced to zero; retry without this reward.
		next := rewards[:0]
		for _, r := range rewards {
			if r.ID != picked.ID {
				next = append(next, r)
			}
		}
		rewards = next
	}
	return nil, nil
}

// notifyWon dispatches the reward email. Failures are logged and never
// affect the play response; the history row is authoritative.
func (e *Engine) notifyWon(shop *models.Shop, result *Result) {
	n := mail.RewardNotification{
		PlayerName:     result.Player.FirstName,
		PlayerEmail:    result.Player.Email,
		ShopName:       shop.Name,
		RewardName:     result.Reward.Name,
		RedemptionCode: result.Event.RedemptionCode,
		ValidUntil:     result.Event.ValidUntil,
	}
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if errNotify := e.notifier.NotifyReward(ctx, n); errNotify != nil {
			log.WithError(errNotify).WithFields(log.Fields{
				"email": n.PlayerEmail,
				"shop":  n.ShopName,
			}).Warn("reward notification failed")
		}
	}
	if e.syncNotify {
		send()
		return
	}
	go send()
}
