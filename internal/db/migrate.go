package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
)

// Migrate runs schema migrations for all persisted models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.SubscriptionPlan{},
		&models.Admin{},
		&models.Shop{},
		&models.Game{},
		&models.GameAssignment{},
		&models.Action{},
		&models.Reward{},
		&models.Player{},
		&models.PlayerGameHistory{},
		&models.PlayEvent{},
		&models.Setting{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	if errIndex := ensureSingleActiveAssignmentIndex(conn); errIndex != nil {
		return errIndex
	}
	return ensureRedemptionCodeIndex(conn)
}

// ensureSingleActiveAssignmentIndex creates a partial unique index so the
// database itself rejects a second active assignment for the same shop.
// Application code deactivates the previous assignment in the same
// transaction; the index backstops concurrent activations.
func ensureSingleActiveAssignmentIndex(conn *gorm.DB) error {
	stmt := `CREATE UNIQUE INDEX IF NOT EXISTS idx_game_assignments_one_active
		ON game_assignments (shop_id) WHERE is_active`
	if IsSQLite(conn) {
		stmt = `CREATE UNIQUE INDEX IF NOT EXISTS idx_game_assignments_one_active
		ON game_assignments (shop_id) WHERE is_active = 1`
	}
	if errExec := conn.Exec(stmt).Error; errExec != nil {
		return fmt.Errorf("db: create active assignment index: %w", errExec)
	}
	return nil
}

// ensureRedemptionCodeIndex creates a partial unique index over non-empty
// redemption codes. Lost events store an empty code and must never collide
// with each other.
func ensureRedemptionCodeIndex(conn *gorm.DB) error {
	stmt := `CREATE UNIQUE INDEX IF NOT EXISTS idx_play_events_redemption_code
		ON play_events (redemption_code) WHERE redemption_code <> ''`
	if errExec := conn.Exec(stmt).Error; errExec != nil {
		return fmt.Errorf("db: create redemption code index: %w", errExec)
	}
	return nil
}
