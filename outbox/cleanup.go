package outbox

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupSweeper deletes COMPLETED rows older than the configured retention
// on a fixed-delay tick (spec.md §4.3). FAILED rows are never touched here —
// they stay visible for the operator surface described in §6.
type CleanupSweeper struct {
	store     *Store
	db        DB
	retention time.Duration
	interval  time.Duration
	log       *logrus.Entry
}

// NewCleanupSweeper wires a cleanup sweeper for one outbox table.
func NewCleanupSweeper(store *Store, db DB, retention, interval time.Duration, log *logrus.Entry) *CleanupSweeper {
	return &CleanupSweeper{
		store:     store,
		db:        db,
		retention: retention,
		interval:  interval,
		log:       log.WithField("component", "outbox_cleanup_sweeper"),
	}
}

// Run ticks until ctx is cancelled.
func (c *CleanupSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs one cleanup pass.
func (c *CleanupSweeper) Tick(ctx context.Context) {
	n, err := c.store.DeleteCompletedOlderThan(ctx, c.db, c.retention)
	if err != nil {
		c.log.WithError(err).Error("cleanup sweep failed")
		return
	}
	if n > 0 {
		c.log.WithField("deleted", n).Debug("cleaned up completed outbox rows")
	}
}
