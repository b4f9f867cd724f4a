package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sergen116/food-ordering-system/pkg/apperr"
)

// Store is a sqlx-backed Store bound to one outbox table. The schema is
// identical across every outbox table in the system (§3):
//
//	id, saga_id, created_at, processed_at, type, payload,
//	order_status, saga_status, outbox_status, version
//
// with a unique index on (saga_id, saga_status) and a
// (outbox_status, created_at) index for sweeper scans (§6).
type Store struct {
	table string
}

// NewStore binds a Store to a concrete outbox table name.
func NewStore(table string) *Store {
	return &Store{table: table}
}

// Execer is the subset of *sqlx.Tx / *sqlx.DB a Store needs, so callers can
// pass either a transaction (the common case — every write happens inside
// withTransaction) or the pooled DB directly (read-only sweeper scans).
type Execer interface {
	sqlx.ExtContext
}

// Insert appends a new row. The unique (saga_id, saga_status) constraint is
// both the outbound-side safety net against accidental re-execution and the
// inbound-side dedupe key (§4.3): a duplicate insert comes back as
// apperr.OptimisticLock, which every inbound consumer in this codebase
// treats as a silent no-op; the command paths (order CreateOrder, customer
// CreateCustomer) return it to their caller.
func (s *Store) Insert(ctx context.Context, ex Execer, msg *Message) error {
	const q = `
		INSERT INTO %s
			(saga_id, created_at, type, payload, order_status, saga_status, outbox_status, version)
		VALUES
			(:saga_id, :created_at, :type, :payload, :order_status, :saga_status, :outbox_status, 0)`

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := sqlx.NamedExecContext(ctx, ex, fmt.Sprintf(q, s.table), msg)
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.OptimisticLock(fmt.Sprintf("%s: duplicate (saga_id=%s, saga_status=%s)", s.table, msg.SagaID, msg.SagaStatus))
		}
		return fmt.Errorf("outbox: insert into %s: %w", s.table, err)
	}
	return nil
}

// FindBySagaAndStatus looks up the row this service previously wrote for a
// given (sagaId, sagaStatus) pair — the row the engine re-reads before a CAS
// update when advancing a saga step.
func (s *Store) FindBySagaAndStatus(ctx context.Context, ex Execer, sagaID string, status SagaStatus) (Message, error) {
	const q = `SELECT * FROM %s WHERE saga_id = ? AND saga_status = ?`

	var msg Message
	err := sqlx.GetContext(ctx, ex, &msg, fmt.Sprintf(q, s.table), sagaID, status)
	if err == sql.ErrNoRows {
		return Message{}, apperr.NotFoundf("%s: no row for saga %s status %s", s.table, sagaID, status)
	}
	if err != nil {
		return Message{}, fmt.Errorf("outbox: find in %s: %w", s.table, err)
	}
	return msg, nil
}

// UpdateStatuses performs the compare-and-set described in §4.3 / §5: the
// row is advanced to newSagaStatus/newOutboxStatus only if its version still
// matches what the caller read. The version column is incremented on every
// successful update. A mismatch (another writer already moved the row) is
// reported back as updated=false, not an error — per §5 the caller decides
// whether that's an expected race (silent no-op) or something to surface.
func (s *Store) UpdateStatuses(ctx context.Context, ex Execer, msg Message, newSagaStatus SagaStatus, newOutboxStatus Status, processedAt *time.Time) (updated bool, err error) {
	const q = `
		UPDATE %s
		SET saga_status = ?, outbox_status = ?, processed_at = ?, version = version + 1
		WHERE id = ? AND version = ?`

	res, err := ex.ExecContext(ctx, fmt.Sprintf(q, s.table), newSagaStatus, newOutboxStatus, processedAt, msg.ID, msg.Version)
	if err != nil {
		return false, fmt.Errorf("outbox: update %s id=%d: %w", s.table, msg.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("outbox: rows affected %s id=%d: %w", s.table, msg.ID, err)
	}
	return n == 1, nil
}

// PendingForPublish returns up to limit rows with outbox_status in
// (STARTED, FAILED), oldest first — the exact query the publish sweeper runs
// every tick (§4.3). FAILED rows are included so a transient publish error
// (e.g. a Kafka outage) gets retried indefinitely on the next tick rather
// than stalling the row forever.
func (s *Store) PendingForPublish(ctx context.Context, ex Execer, limit int) ([]Message, error) {
	const q = `SELECT * FROM %s WHERE outbox_status IN (?, ?) ORDER BY created_at ASC LIMIT ?`

	var rows []Message
	err := sqlx.SelectContext(ctx, ex, &rows, fmt.Sprintf(q, s.table), StatusStarted, StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("outbox: scan pending %s: %w", s.table, err)
	}
	return rows, nil
}

// MarkPublishedCAS moves a row from STARTED or FAILED to COMPLETED with processedAt
// set, guarded by version. Returns updated=false if another sweeper won the
// race (§4.3 "that one aborts its send-effect ... and leaves status
// management to the winner").
func (s *Store) MarkPublishedCAS(ctx context.Context, ex Execer, msg Message) (bool, error) {
	now := time.Now().UTC()
	return s.UpdateStatuses(ctx, ex, msg, msg.SagaStatus, StatusCompleted, &now)
}

// MarkFailedCAS moves a row from STARTED (or FAILED) to FAILED, guarded by version, for
// the next sweep tick to retry (§4.3 "retried indefinitely").
func (s *Store) MarkFailedCAS(ctx context.Context, ex Execer, msg Message) (bool, error) {
	return s.UpdateStatuses(ctx, ex, msg, msg.SagaStatus, StatusFailed, nil)
}

// DeleteCompletedOlderThan removes COMPLETED rows whose processed_at
// predates the retention window (§4.3 cleanup sweeper). Failed rows are
// never deleted by this query — they are retained for operator inspection.
func (s *Store) DeleteCompletedOlderThan(ctx context.Context, ex Execer, retention time.Duration) (int64, error) {
	const q = `DELETE FROM %s WHERE outbox_status = ? AND processed_at < ?`

	cutoff := time.Now().UTC().Add(-retention)
	res, err := ex.ExecContext(ctx, fmt.Sprintf(q, s.table), StatusCompleted, cutoff)
	if err != nil {
		return 0, fmt.Errorf("outbox: cleanup %s: %w", s.table, err)
	}
	return res.RowsAffected()
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1062 = ER_DUP_ENTRY
		return mysqlErr.Number == 1062
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}
