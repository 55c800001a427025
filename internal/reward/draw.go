package reward

import (
	"math/rand/v2"
	"sync"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// Drawer performs the randomized win decision and weighted prize pick for
// a shop. One Drawer is shared across concurrent requests: the production
// path uses the concurrency-safe top-level generator, the seeded source
// for tests is serialized by a mutex.
type Drawer struct {
	mu  sync.Mutex
	rnd *rand.Rand // nil means the shared top-level source
}

// NewDrawer constructs a Drawer over the process-wide random source.
func NewDrawer() *Drawer {
	return &Drawer{}
}

// NewSeededDrawer constructs a deterministic Drawer for tests.
func NewSeededDrawer(seed1, seed2 uint64) *Drawer {
	return &Drawer{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

func (d *Drawer) intN(n int) int {
	if d.rnd == nil {
		return rand.IntN(n)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rnd.IntN(n)
}

// Wins decides whether a play at the shop wins. Guaranteed-win shops
// always win; otherwise the play wins with probability winningPercent/100.
func (d *Drawer) Wins(shop *models.Shop) bool {
	if shop == nil {
		return false
	}
	if shop.GuaranteedWin {
		return true
	}
	percent := shop.WinningPercent
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return d.intN(100) < percent
}

// PickWeighted draws one prize proportionally to reward weight among the
// available rewards. Returns nil when no prize can be awarded.
func (d *Drawer) PickWeighted(rewards []models.Reward) *models.Reward {
	candidates := make([]models.Reward, 0, len(rewards))
	total := 0
	for _, r := range rewards {
		if !r.Available() || r.Weight <= 0 {
			continue
		}
		candidates = append(candidates, r)
		total += r.Weight
	}
	if len(candidates) == 0 || total <= 0 {
		return nil
	}

	roll := d.intN(total)
	for i := range candidates {
		roll -= candidates[i].Weight
		if roll < 0 {
			picked := candidates[i]
			return &picked
		}
	}
	// Unreachable: roll is always consumed within total.
	picked := candidates[len(candidates)-1]
	return &picked
}

// Pick combines the win decision and the weighted prize pick. Used by the
// non-committing preview endpoint.
func (d *Drawer) Pick(shop *models.Shop, rewards []models.Reward) *models.Reward {
	if !d.Wins(shop) {
		return nil
	}
	return d.PickWeighted(rewards)
}
