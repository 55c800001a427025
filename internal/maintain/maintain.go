// Package maintain runs the periodic housekeeping sweep: it expires
// scheduled game assignments, prunes aged play events, and refreshes the
// in-memory settings snapshot.
package maintain

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/amira30til/ScanToWin-sub001/internal/models"
	"github.com/amira30til/ScanToWin-sub001/internal/settings"
)

const (
	defaultEventDeleteBatchSize = 5000
	maxDeleteBatchesPerRun      = 2000
)

// Sweeper periodically performs database housekeeping.
type Sweeper struct {
	db        *gorm.DB
	batchSize int
}

// NewSweeper constructs a Sweeper.
func NewSweeper(db *gorm.DB) *Sweeper {
	if db == nil {
		return nil
	}
	return &Sweeper{
		db:        db,
		batchSize: defaultEventDeleteBatchSize,
	}
}

// Start launches the sweep loop in a background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	if s == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("maintenance sweeper started (interval=%s)", s.interval())
}

func (s *Sweeper) run(ctx context.Context) {
	for {
		if ctx != nil && ctx.Err() != nil {
			return
		}
		s.sweepOnce(ctx)
		if ctx != nil && ctx.Err() != nil {
			return
		}
		timer := time.NewTimer(s.interval())
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (s *Sweeper) interval() time.Duration {
	seconds := settings.IntValue(settings.MaintainIntervalSecondsKey, settings.DefaultMaintainIntervalSeconds)
	if seconds <= 0 {
		seconds = settings.DefaultMaintainIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

// sweepOnce runs one full housekeeping pass.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	if s == nil || s.db == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if errRefresh := settings.Refresh(ctx, s.db); errRefresh != nil {
		log.WithError(errRefresh).Warn("maintenance sweeper: settings refresh failed")
	}
	s.expireAssignments(ctx)
	s.pruneEvents(ctx)
}

// expireAssignments deactivates assignments whose schedule window ended.
func (s *Sweeper) expireAssignments(ctx context.Context) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.GameAssignment{}).
		Where("is_active = ? AND ends_at IS NOT NULL AND ends_at <= ?", true, now).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": now,
		})
	if res.Error != nil {
		log.WithError(res.Error).Warn("maintenance sweeper: expire assignments failed")
		return
	}
	if res.RowsAffected > 0 {
		log.Infof("maintenance sweeper: deactivated %d expired assignments", res.RowsAffected)
	}
}

// pruneEvents deletes play events older than the retention window. Won
// events that are still redeemable are kept regardless of age so their
// codes stay valid in store.
func (s *Sweeper) pruneEvents(ctx context.Context) {
	retentionDays := settings.IntValue(settings.EventRetentionDaysKey, settings.DefaultEventRetentionDays)
	if retentionDays <= 0 {
		return
	}

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -retentionDays)

	deletedTotal := int64(0)
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if ctx != nil && ctx.Err() != nil {
			return
		}
		n, errDelete := s.deleteEventBatch(ctx, cutoff, now)
		if errDelete != nil {
			log.WithError(errDelete).Warn("maintenance sweeper: delete event batch failed")
			break
		}
		if n <= 0 {
			break
		}
		deletedTotal += n
	}

	if deletedTotal > 0 {
		log.Infof("maintenance sweeper: pruned %d play events (cutoff=%s retention_days=%d)", deletedTotal, cutoff.Format(time.RFC3339), retentionDays)
	}
}

func (s *Sweeper) deleteEventBatch(ctx context.Context, cutoff, now time.Time) (int64, error) {
	limit := s.batchSize
	if limit <= 0 {
		limit = defaultEventDeleteBatchSize
	}

	// Limited subquery keeps each delete short-lived. The outcome clause
	// excludes won events that are unredeemed and not yet expired.
	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM play_events
		WHERE id IN (
			SELECT id FROM play_events
			WHERE created_at < ?
			  AND (
			    outcome <> ?
			    OR redeemed_at IS NOT NULL
			    OR (valid_until IS NOT NULL AND valid_until < ?)
			  )
			ORDER BY created_at ASC
			LIMIT ?
		)
	`, cutoff, models.OutcomeWon, now, limit)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
