package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"gorm.io/datatypes"

	dbutil "github.com/amira30til/ScanToWin-sub001/internal/db"
	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

func resetSnapshot(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		Store(time.Time{}, map[string]json.RawMessage{})
	})
}

func TestStoreAndTypedValues(t *testing.T) {
	resetSnapshot(t)

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	Store(at, map[string]json.RawMessage{
		CooldownHoursKey: json.RawMessage(`48`),
		SiteNameKey:      json.RawMessage(`"My Platform"`),
		"BROKEN":         json.RawMessage(`{oops`),
	})

	if !UpdatedAt().Equal(at) {
		t.Fatalf("expected updated_at %s, got %s", at, UpdatedAt())
	}
	if got := IntValue(CooldownHoursKey, 0); got != 48 {
		t.Fatalf("expected 48, got %d", got)
	}
	if got := StringValue(SiteNameKey, "fallback"); got != "My Platform" {
		t.Fatalf("expected site name, got %q", got)
	}
	if got := IntValue("BROKEN", 7); got != 7 {
		t.Fatalf("expected fallback for malformed value, got %d", got)
	}
	if got := IntValue("ABSENT", 9); got != 9 {
		t.Fatalf("expected fallback for absent key, got %d", got)
	}
}

func TestValueReturnsCopy(t *testing.T) {
	resetSnapshot(t)

	Store(time.Now().UTC(), map[string]json.RawMessage{SiteNameKey: json.RawMessage(`"A"`)})
	raw, ok := Value(SiteNameKey)
	if !ok {
		t.Fatalf("expected value to be present")
	}
	raw[0] = 'X'
	again, _ := Value(SiteNameKey)
	if string(again) != `"A"` {
		t.Fatalf("expected stored value untouched, got %s", again)
	}
}

func TestRefreshLoadsRows(t *testing.T) {
	resetSnapshot(t)

	dsn := fmt.Sprintf("file:settings_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbutil.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	rows := []models.Setting{
		{Key: CooldownHoursKey, Value: datatypes.JSON([]byte(`12`))},
		{Key: SiteNameKey, Value: datatypes.JSON([]byte(`"Loaded"`))},
	}
	if errCreate := conn.Create(&rows).Error; errCreate != nil {
		t.Fatalf("create settings: %v", errCreate)
	}

	if errRefresh := Refresh(context.Background(), conn); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if got := IntValue(CooldownHoursKey, 0); got != 12 {
		t.Fatalf("expected 12 after refresh, got %d", got)
	}
	if got := StringValue(SiteNameKey, ""); got != "Loaded" {
		t.Fatalf("expected Loaded after refresh, got %q", got)
	}
}
