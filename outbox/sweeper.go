package outbox

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Publisher is the narrow capability the sweeper needs from the log port
// (spec.md §9 "hexagonal ports become narrow interface types"). key is the
// sagaId — the partition key that keeps a saga's messages in order (§3, §6).
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// DB is the subset of *sqlx.DB the sweeper needs to run reads outside any
// domain transaction and per-row CAS updates that don't need one either —
// spec.md §5 requires a transaction is never held open across a publish, so
// the sweeper never opens one.
type DB interface {
	Execer
}

// PublishSweeper drains one outbox table onto one topic on a fixed-delay
// tick (spec.md §9 "annotation-driven schedulers become a tick loop").
type PublishSweeper struct {
	store     *Store
	db        DB
	publisher Publisher
	topic     string
	interval  time.Duration
	batchSize int
	log       *logrus.Entry
}

// NewPublishSweeper wires one sweeper for one (table, topic) pair. A
// service with two outbound outboxes (Order's payment+approval outboxes)
// runs two independent sweepers — one goroutine each, per §9.
func NewPublishSweeper(store *Store, db DB, publisher Publisher, topic string, interval time.Duration, batchSize int, log *logrus.Entry) *PublishSweeper {
	return &PublishSweeper{
		store:     store,
		db:        db,
		publisher: publisher,
		topic:     topic,
		interval:  interval,
		batchSize: batchSize,
		log:       log.WithField("component", "outbox_publish_sweeper").WithField("topic", topic),
	}
}

// Run ticks until ctx is cancelled.
func (p *PublishSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one sweep. Exported so tests can drive it without waiting for
// the ticker.
func (p *PublishSweeper) Tick(ctx context.Context) {
	rows, err := p.store.PendingForPublish(ctx, p.db, p.batchSize)
	if err != nil {
		p.log.WithError(err).Error("failed to scan pending outbox rows")
		return
	}
	if len(rows) == 0 {
		return
	}

	for _, row := range rows {
		p.publishOne(ctx, row)
	}
}

func (p *PublishSweeper) publishOne(ctx context.Context, row Message) {
	log := p.log.WithField("saga_id", row.SagaID).WithField("outbox_id", row.ID)

	// Publish happens before the CAS update, and never inside a domain
	// transaction (spec.md §5: "publish happens after commit" — here there
	// is no open transaction at all around the publish).
	if err := p.publisher.Publish(ctx, p.topic, row.SagaID, row.Payload); err != nil {
		log.WithError(err).Warn("publish failed, will retry next tick")
		if _, casErr := p.store.MarkFailedCAS(ctx, p.db, row); casErr != nil {
			log.WithError(casErr).Error("failed to mark outbox row FAILED")
		}
		return
	}

	updated, err := p.store.MarkPublishedCAS(ctx, p.db, row)
	if err != nil {
		log.WithError(err).Error("failed to mark outbox row COMPLETED after publish")
		return
	}
	if !updated {
		// Another sweeper instance already advanced this row's version —
		// our publish was redundant but harmless (at-least-once delivery);
		// status bookkeeping is left to whichever writer won the CAS race.
		log.Debug("lost the CAS race marking row COMPLETED, dropping")
		return
	}
	log.Debug("published outbox row")
}
