package play

import (
	"errors"
	"time"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// Status identifies the outcome of a play submission. Business-rule
// rejections are statuses on the Result, not errors: only validation and
// infrastructure failures surface as Go errors.
type Status string

const (
	// StatusWon means the play succeeded and a prize was awarded.
	StatusWon Status = "won"
	// StatusLost means the play succeeded without a prize.
	StatusLost Status = "lost"
	// StatusCooldown means the player is still inside the cooldown window.
	StatusCooldown Status = "cooldown"
	// StatusNoActiveGame means the shop has no active game assignment.
	StatusNoActiveGame Status = "no_active_game"
	// StatusInProgress means another play for the same pair is in flight.
	StatusInProgress Status = "in_progress"
)

// Rejection codes surfaced to clients.
const (
	// CodeCooldown identifies a cooldown rejection.
	CodeCooldown = "USER_COOLDOWN"
	// CodeNoActiveGame identifies a missing active game assignment.
	CodeNoActiveGame = "NO_ACTIVE_GAME"
	// CodeInProgress identifies a concurrent duplicate submission.
	CodeInProgress = "PLAY_IN_PROGRESS"
)

// Typed errors returned by Submit for not-found conditions.
var (
	// ErrShopNotFound indicates the shop does not exist or is inactive.
	ErrShopNotFound = errors.New("shop not found")
	// ErrActionNotFound indicates the action does not belong to the shop.
	ErrActionNotFound = errors.New("action not found")
)

// CooldownInfo describes an active cooldown rejection.
type CooldownInfo struct {
	RetryAt   time.Time     // Absolute instant play becomes allowed again.
	Remaining time.Duration // Time left until RetryAt.
}

// Result is the tagged outcome of a play submission.
type Result struct {
	Status        Status
	PlayerCreated bool // True when this submission created the player record.

	Player *models.Player
	Reward *models.Reward    // Set when Status is StatusWon.
	Event  *models.PlayEvent // Set on won and lost plays.

	Cooldown *CooldownInfo // Set when Status is StatusCooldown.
}
