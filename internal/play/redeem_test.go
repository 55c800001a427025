package play

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRedeemFlow(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 100, false)
	seedReward(t, conn, fx.shop.ID, 0, true)
	engine := newTestEngine(conn)

	result, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "winner@example.com", FirstName: "Winner"})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}
	if result.Status != StatusWon {
		t.Fatalf("expected won, got %s", result.Status)
	}
	code := result.Event.RedemptionCode

	if _, errRedeem := engine.Redeem(context.Background(), code, "9999"); !errors.Is(errRedeem, ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN, got %v", errRedeem)
	}

	event, errRedeem := engine.Redeem(context.Background(), code, "1234")
	if errRedeem != nil {
		t.Fatalf("redeem: %v", errRedeem)
	}
	if event.RedeemedAt == nil {
		t.Fatalf("expected redeemed_at to be set")
	}

	if _, errAgain := engine.Redeem(context.Background(), code, "1234"); !errors.Is(errAgain, ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", errAgain)
	}
}

func TestRedeemUnknownCode(t *testing.T) {
	conn := setupPlayDB(t)
	seedShop(t, conn, 100, false)
	engine := newTestEngine(conn)

	if _, errRedeem := engine.Redeem(context.Background(), "NOPE-NOPE-NOPE", "1234"); !errors.Is(errRedeem, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", errRedeem)
	}
}

func TestRedeemExpiredReward(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 100, false)
	seedReward(t, conn, fx.shop.ID, 0, true)
	engine := newTestEngine(conn)

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base }
	result, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "late@example.com", FirstName: "Late"})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}
	if result.Status != StatusWon {
		t.Fatalf("expected won, got %s", result.Status)
	}

	// ValidDays is 14 in the fixture; jump past the window.
	engine.now = func() time.Time { return base.AddDate(0, 0, 20) }
	if _, errRedeem := engine.Redeem(context.Background(), result.Event.RedemptionCode, "1234"); !errors.Is(errRedeem, ErrRewardExpired) {
		t.Fatalf("expected ErrRewardExpired, got %v", errRedeem)
	}
}

func TestRedeemCodeCaseInsensitive(t *testing.T) {
	conn := setupPlayDB(t)
	fx := seedShop(t, conn, 100, false)
	seedReward(t, conn, fx.shop.ID, 0, true)
	engine := newTestEngine(conn)

	result, errSubmit := engine.Submit(context.Background(), SubmitInput{ShopID: fx.shop.ID, Email: "case@example.com", FirstName: "Case"})
	if errSubmit != nil {
		t.Fatalf("submit: %v", errSubmit)
	}

	lower := " " + strings.ToLower(result.Event.RedemptionCode) + " "
	if _, errRedeem := engine.Redeem(context.Background(), lower, "1234"); errRedeem != nil {
		t.Fatalf("redeem with lowercase code: %v", errRedeem)
	}
}
