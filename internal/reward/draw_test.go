package reward

import (
	"sync"
	"testing"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

func TestWinsGuaranteed(t *testing.T) {
	d := NewSeededDrawer(1, 1)
	shop := &models.Shop{GuaranteedWin: true, WinningPercent: 0}
	for i := 0; i < 100; i++ {
		if !d.Wins(shop) {
			t.Fatalf("guaranteed-win shop must always win")
		}
	}
}

func TestWinsZeroPercent(t *testing.T) {
	d := NewSeededDrawer(2, 2)
	shop := &models.Shop{WinningPercent: 0}
	for i := 0; i < 100; i++ {
		if d.Wins(shop) {
			t.Fatalf("zero-percent shop must never win")
		}
	}
}

func TestWinsHundredPercent(t *testing.T) {
	d := NewSeededDrawer(3, 3)
	shop := &models.Shop{WinningPercent: 100}
	for i := 0; i < 100; i++ {
		if !d.Wins(shop) {
			t.Fatalf("hundred-percent shop must always win")
		}
	}
}

func TestWinsRateRoughlyMatchesPercent(t *testing.T) {
	d := NewSeededDrawer(4, 4)
	shop := &models.Shop{WinningPercent: 30}
	wins := 0
	const rounds = 10000
	for i := 0; i < rounds; i++ {
		if d.Wins(shop) {
			wins++
		}
	}
	rate := float64(wins) / rounds
	if rate < 0.25 || rate > 0.35 {
		t.Fatalf("expected win rate near 0.30, got %.3f", rate)
	}
}

func TestPickWeightedSkipsUnavailable(t *testing.T) {
	d := NewSeededDrawer(5, 5)
	rewards := []models.Reward{
		{ID: 1, Weight: 100, Remaining: 0, Active: true},  // exhausted
		{ID: 2, Weight: 100, Remaining: 5, Active: false}, // inactive
		{ID: 3, Weight: 0, Remaining: 5, Active: true},    // zero weight
		{ID: 4, Weight: 1, Unlimited: true, Active: true}, // only candidate
	}
	for i := 0; i < 50; i++ {
		picked := d.PickWeighted(rewards)
		if picked == nil || picked.ID != 4 {
			t.Fatalf("expected reward 4 to be the only candidate, got %+v", picked)
		}
	}
}

func TestPickWeightedNilWhenEmpty(t *testing.T) {
	d := NewSeededDrawer(6, 6)
	if picked := d.PickWeighted(nil); picked != nil {
		t.Fatalf("expected nil for empty pool, got %+v", picked)
	}
	exhausted := []models.Reward{{ID: 1, Weight: 10, Remaining: 0, Active: true}}
	if picked := d.PickWeighted(exhausted); picked != nil {
		t.Fatalf("expected nil for exhausted pool, got %+v", picked)
	}
}

func TestPickWeightedFollowsWeights(t *testing.T) {
	d := NewSeededDrawer(7, 7)
	rewards := []models.Reward{
		{ID: 1, Weight: 90, Unlimited: true, Active: true},
		{ID: 2, Weight: 10, Unlimited: true, Active: true},
	}
	counts := map[uint64]int{}
	const rounds = 10000
	for i := 0; i < rounds; i++ {
		picked := d.PickWeighted(rewards)
		if picked == nil {
			t.Fatalf("expected a pick")
		}
		counts[picked.ID]++
	}
	heavy := float64(counts[1]) / rounds
	if heavy < 0.85 || heavy > 0.95 {
		t.Fatalf("expected the 90-weight reward near 0.90 of picks, got %.3f", heavy)
	}
}

func TestPickCombinesWinAndDraw(t *testing.T) {
	d := NewSeededDrawer(8, 8)
	rewards := []models.Reward{{ID: 1, Weight: 10, Unlimited: true, Active: true}}

	losing := &models.Shop{WinningPercent: 0}
	if picked := d.Pick(losing, rewards); picked != nil {
		t.Fatalf("expected nil on a losing shop")
	}

	winning := &models.Shop{GuaranteedWin: true}
	if picked := d.Pick(winning, rewards); picked == nil || picked.ID != 1 {
		t.Fatalf("expected the single reward, got %+v", picked)
	}
}

func TestDrawerConcurrentUse(t *testing.T) {
	rewards := []models.Reward{
		{ID: 1, Weight: 60, Unlimited: true, Active: true},
		{ID: 2, Weight: 40, Unlimited: true, Active: true},
	}
	shop := &models.Shop{WinningPercent: 50}

	for _, d := range []*Drawer{NewDrawer(), NewSeededDrawer(9, 9)} {
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 1000; i++ {
					d.Wins(shop)
					d.PickWeighted(rewards)
				}
			}()
		}
		wg.Wait()
	}
}
