package play

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	dbutil "github.com/amira30til/ScanToWin-sub001/internal/db"
	"github.com/amira30til/ScanToWin-sub001/internal/mail"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/reward"
	"github.com/amira30til/ScanToWin-sub001/internal/security"
)

func setupPlayDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:play_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbutil.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

type playFixture struct {
	shop       models.Shop
	game       models.Game
	assignment models.GameAssignment
}

func seedShop(t *testing.T, conn *gorm.DB, winningPercent int, guaranteed bool) playFixture {
	t.Helper()
	pinHash, errPin := security.HashPIN("1234")
	if errPin != nil {
		t.Fatalf("hash pin: %v", errPin)
	}
	admin := models.Admin{Username: fmt.Sprintf("owner_%d", time.Now().UnixNano()), Email: fmt.Sprintf("owner_%d@example.com", time.Now().UnixNano()), Password: "x", Active: true}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	shop := models.Shop{
		AdminID:        admin.ID,
		Name:           "Test Shop",
		Slug:           fmt.Sprintf("test-shop-%d", time.Now().UnixNano()),
		GuaranteedWin:  guaranteed,
		WinningPercent: winningPercent,
		PINHash:        pinHash,
		Active:         true,
	}
	if errCreate := conn.Create(&shop).Error; errCreate != nil {
		t.Fatalf("create shop: %v", errCreate)
	}
	game := models.Game{Name: fmt.Sprintf("Wheel %d", time.Now().UnixNano()), Kind: models.GameKindWheel, Active: true}
	if errCreate := conn.Create(&game).Error; errCreate != nil {
		t.Fatalf("create game: %v", errCreate)
	}
	assignment := models.GameAssignment{ShopID: shop.ID, GameID: game.ID, IsActive: true}
	if errCreate := conn.Create(&assignment).Error; errCreate != nil {
		t.Fatalf("create assignment: %v", errCreate)
	}
	return playFixture{shop: shop, game: game, assignment: assignment}
}

func seedReward(t *testing.T, conn *gorm.DB, shopID uint64, remaining int, unlimited bool) models.Reward {
	t.Helper()
	row := models.Reward{
		ShopID:      shopID,
		Name:        fmt.Sprintf("Prize %d", time.Now().UnixNano()),
		Weight:      10,
		WinnerCount: remaining,
		Remaining:   remaining,
		Unlimited:   unlimited,
		ValidDays:   14,
		Active:      true,
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create reward: %v", errCreate)
	}
	return row
}

func newTestEngine(conn *gorm.DB) *Engine {
	return NewEngine(conn, reward.NewSeededDrawer(1, 2), mail.LogNotifier{}, nil, 24*time.Hour)
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if errCount := conn.Model(model).Count(&n).Error; errCount != nil {
		t.Fatalf("count rows: %v", errCount)
	}
	return n
}

func TestSubmitFirstPlayCreatesPlayerHistoryAndEvent(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 100, false)
	seedReward(t, conn, fx.shop.ID, 0, true)
	engine := newTestEngine(conn)

	result, errSubmit := engine.Submit(context.Background(), SubmitInput{
		ShopID:    fx.shop.ID,
		Email:     "  Alice@Example.COM ",
		FirstName: "Alice",
	})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}
	if result.Status != StatusWon {
		t.Fatalf("expected won, got %s", result.Status)
	}
	if !result.PlayerCreated {
		t.Fatalf("expected player to be created")
	}
	if result.Player.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", result.Player.Email)
	}
	if result.Event.RedemptionCode == "" {
		t.Fatalf("expected redemption code on won event")
	}
	if result.Event.ValidUntil == nil {
		t.Fatalf("expected valid_until on won event")
	}

	if n := countRows(t, conn, &models.Player{}); n != 1 {
		t.Fatalf("expected 1 player, got %d", n)
	}
	if n := countRows(t, conn, &models.PlayerGameHistory{}); n != 1 {
		t.Fatalf("expected 1 history row, got %d", n)
	}
	if n := countRows(t, conn, &models.PlayEvent{}); n != 1 {
		t.Fatalf("expected 1 play event, got %d", n)
	}

	var player models.Player
	if errFind := conn.First(&player, result.Player.ID).Error; errFind != nil {
		t.Fatalf("load player: %v", errFind)
	}
	if player.TotalPlayedGames != 1 {
		t.Fatalf("expected total_played_games=1, got %d", player.TotalPlayedGames)
	}
}

func TestSubmitCooldownRejection(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 0, false)
	engine := newTestEngine(conn)

	first, errFirst := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "bob@example.com", FirstName: "Bob"})
	if errFirst != nil {
		t.Fatalf("first submit: %v", errFirst)
	}
	if first.Status != StatusLost {
		t.Fatalf("expected lost, got %s", first.Status)
	}

	second, errSecond := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "bob@example.com", FirstName: "Bob"})
	if errSecond != nil {
		t.Fatalf("second submit: %v", errSecond)
	}
	if second.Status != StatusCooldown {
		t.Fatalf("expected cooldown, got %s", second.Status)
	}
	if second.Cooldown == nil {
		t.Fatalf("expected cooldown info")
	}
	if second.Cooldown.Remaining <= 0 || second.Cooldown.Remaining > 24*time.Hour {
		t.Fatalf("unexpected remaining %s", second.Cooldown.Remaining)
	}
	if !second.Cooldown.RetryAt.After(time.Now().UTC()) {
		t.Fatalf("expected retry_at in the future, got %s", second.Cooldown.RetryAt)
	}

	// The rejected attempt must not write anything.
	if n := countRows(t, conn, &models.PlayEvent{}); n != 1 {
		t.Fatalf("expected 1 play event after rejection, got %d", n)
	}
	var player models.Player
	if errFind := conn.Where("email = ?", "bob@example.com").First(&player).Error; errFind != nil {
		t.Fatalf("load player: %v", errFind)
	}
	if player.TotalPlayedGames != 1 {
		t.Fatalf("expected total_played_games=1 after rejection, got %d", player.TotalPlayedGames)
	}
}

func TestSubmitAfterCooldownIncrementsHistory(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 0, false)
	engine := newTestEngine(conn)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base }
	if _, errFirst := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "carol@example.com", FirstName: "Carol"}); errFirst != nil {
		t.Fatalf("first submit: %v", errFirst)
	}

	engine.now = func() time.Time { return base.Add(25 * time.Hour) }
	second, errSecond := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "carol@example.com", FirstName: "Carol"})
	if errSecond != nil {
		t.Fatalf("second submit: %v", errSecond)
	}
	if second.Status != StatusLost {
		t.Fatalf("expected lost after cooldown elapsed, got %s", second.Status)
	}
	if second.PlayerCreated {
		t.Fatalf("expected returning player")
	}

	var history models.PlayerGameHistory
	if errFind := conn.Where("player_id = ? AND shop_id = ?", second.Player.ID, fx.shop.ID).First(&history).Error; errFind != nil {
		t.Fatalf("load history: %v", errFind)
	}
	if history.PlayCount != 2 {
		t.Fatalf("expected play_count=2, got %d", history.PlayCount)
	}
	if !history.LastPlayedAt.Equal(base.Add(25 * time.Hour)) {
		t.Fatalf("expected last_played_at updated, got %s", history.LastPlayedAt)
	}
}

func TestSubmitNoActiveGameWritesNothing(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 100, false)
	if errDeactivate := conn.Model(&models.GameAssignment{}).Where("shop_id = ?", fx.shop.ID).Update("is_active", false).Error; errDeactivate != nil {
		t.Fatalf("deactivate assignment: %v", errDeactivate)
	}
	engine := newTestEngine(conn)

	result, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "dave@example.com", FirstName: "Dave"})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}
	if result.Status != StatusNoActiveGame {
		t.Fatalf("expected no_active_game, got %s", result.Status)
	}
	if n := countRows(t, conn, &models.Player{}); n != 0 {
		t.Fatalf("expected no player rows, got %d", n)
	}
	if n := countRows(t, conn, &models.PlayEvent{}); n != 0 {
		t.Fatalf("expected no play events, got %d", n)
	}
}

func TestSubmitUnknownShop(t *testing.T) {
	conn := setupPlayDB(t)
	engine := newTestEngine(conn)

	_, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: 9999, Email: "eve@example.com", FirstName: "Eve"})
	if !errors.Is(errSubmit, ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", errSubmit)
	}
}

func TestSubmitQuotaExhaustion(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 0, true)
	prize := seedReward(t, conn, fx.shop.ID, 1, false)
	engine := newTestEngine(conn)

	first, errFirst := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "frank@example.com", FirstName: "Frank"})
	if errFirst != nil {
		t.Fatalf("first submit: %v", errFirst)
	}
	if first.Status != StatusWon {
		t.Fatalf("expected won on guaranteed-win shop, got %s", first.Status)
	}

	second, errSecond := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "grace@example.com", FirstName: "Grace"})
	if errSecond != nil {
		t.Fatalf("second submit: %v", errSecond)
	}
	if second.Status != StatusLost {
		t.Fatalf("expected lost once quota is gone, got %s", second.Status)
	}

	var row models.Reward
	if errFind := conn.First(&row, prize.ID).Error; errFind != nil {
		t.Fatalf("load reward: %v", errFind)
	}
	if row.Remaining != 0 {
		t.Fatalf("expected remaining=0, got %d", row.Remaining)
	}
}

type failingNotifier struct{}

func (failingNotifier) NotifyReward(context.Context, mail.RewardNotification) error {
	return errors.New("smtp unavailable")
}

func TestSubmitNotifierFailureDoesNotAffectResult(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 100, false)
	seedReward(t, conn, fx.shop.ID, 0, true)

	engine := NewEngine(conn, reward.NewSeededDrawer(1, 2), failingNotifier{}, nil, 24*time.Hour)
	engine.syncNotify = true

	result, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "henry@example.com", FirstName: "Henry"})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}
	if result.Status != StatusWon {
		t.Fatalf("expected won despite notifier failure, got %s", result.Status)
	}
	if n := countRows(t, conn, &models.PlayEvent{}); n != 1 {
		t.Fatalf("expected the play to be recorded, got %d events", n)
	}
}

func TestSubmitActionCounter(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 0, false)
	token, errToken := security.NewQRToken()
	if errToken != nil {
		t.Fatalf("new token: %v", errToken)
	}
	action := models.Action{ShopID: fx.shop.ID, Name: "Counter", QRToken: token, Active: true}
	if errCreate := conn.Create(&action).Error; errCreate != nil {
		t.Fatalf("create action: %v", errCreate)
	}
	engine := newTestEngine(conn)

	result, errSubmit := engine.Submit(context.Background(), SubmitInput{
		ShopID:    fx.shop.ID,
		Email:     "ivy@example.com",
		FirstName: "Ivy",
		ActionID:  &action.ID,
	})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}
	if result.Event.ActionID == nil || *result.Event.ActionID != action.ID {
		t.Fatalf("expected event to reference the action")
	}

	var row models.Action
	if errFind := conn.First(&row, action.ID).Error; errFind != nil {
		t.Fatalf("load action: %v", errFind)
	}
	if row.ScanHits != 1 {
		t.Fatalf("expected scan_hits=1, got %d", row.ScanHits)
	}
}

func TestVerifyCooldown(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 0, false)
	engine := newTestEngine(conn)

	info, errVerify := engine.Verify(context.Background(), fx.shop.ID, "new@example.com")
	if errVerify != nil {
		t.Fatalf("verify unknown email: %v", errVerify)
	}
	if info != nil {
		t.Fatalf("expected unknown email to be allowed")
	}

	if _, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "new@example.com", FirstName: "New"}); errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}

	info, errVerify = engine.Verify(context.Background(), fx.shop.ID, "NEW@example.com")
	if errVerify != nil {
		t.Fatalf("verify after play: %v", errVerify)
	}
	if info == nil {
		t.Fatalf("expected cooldown info after play")
	}
	if info.Remaining <= 0 {
		t.Fatalf("expected positive remaining, got %s", info.Remaining)
	}
}

func TestSubmitMissingFields(t *testing.T) {
	conn := setupPlayDB(t)
	engine := newTestEngine(conn)

	if _, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: 1, FirstName: "X"}); errSubmit == nil {
		t.Fatalf("expected error for missing email")
	}
	if _, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: 1, Email: "x@example.com"}); errSubmit == nil {
		t.Fatalf("expected error for missing first name")
	}
}

func TestSubmitLostPlaysByDifferentPlayers(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 0, false)
	engine := newTestEngine(conn)

	for i, email := range []string{"first@example.com", "second@example.com", "third@example.com"} {
		result, errSubmit := engine.Submit(context.Background(), SubmitInput{
			ShopID:    fx.shop.ID,
			Email:     email,
			FirstName: fmt.Sprintf("Player%d", i),
		})
		if errSubmit != nil {
			t.Fatalf("submit %s: %v", email, errSubmit)
		}
		if result.Status != StatusLost {
			t.Fatalf("expected lost for %s, got %s", email, result.Status)
		}
	}

	if n := countRows(t, conn, &models.PlayEvent{}); n != 3 {
		t.Fatalf("expected 3 events, got %d", n)
	}
	var codes []string
	if errFind := conn.Model(&models.PlayEvent{}).Pluck("redemption_code", &codes).Error; errFind != nil {
		t.Fatalf("load codes: %v", errFind)
	}
	for _, code := range codes {
		if code != "" {
			t.Fatalf("expected empty code on a lost event, got %q", code)
		}
	}
}

func TestWonEventsStillRejectDuplicateCodes(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 100, false)

	first := models.PlayEvent{PlayerID: 1, ShopID: fx.shop.ID, GameID: fx.game.ID, AssignmentID: fx.assignment.ID, Outcome: models.OutcomeWon, RedemptionCode: "DUPE-DUPE-DUPE"}
	player := models.Player{Email: "winner@example.com", FirstName: "Winner"}
	if errCreate := conn.Create(&player).Error; errCreate != nil {
		t.Fatalf("create player: %v", errCreate)
	}
	first.PlayerID = player.ID
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create won event: %v", errCreate)
	}

	dup := models.PlayEvent{PlayerID: player.ID, ShopID: fx.shop.ID, GameID: fx.game.ID, AssignmentID: fx.assignment.ID, Outcome: models.OutcomeWon, RedemptionCode: "DUPE-DUPE-DUPE"}
	errCreate := conn.Create(&dup).Error
	if !errors.Is(errCreate, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated-key error for a reused code, got %v", errCreate)
	}
}

func TestVerifyUnknownShop(t *testing.T) {
	conn := setupPlayDB(t)
	engine := newTestEngine(conn)

	if _, errVerify := engine.Verify(context.Background(), 404, "player@example.com"); !errors.Is(errVerify, ErrShopNotFound) {
		t.Fatalf("expected ErrShopNotFound, got %v", errVerify)
	}
}
