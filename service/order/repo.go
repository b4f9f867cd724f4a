package order

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
)

// IRepo is the persistence port for the Order aggregate plus its two
// outbound outboxes (PaymentOutbox, ApprovalOutbox). spec.md §4.2 requires
// the order row and its outbox row to commit atomically, so every write
// path here takes an outbox.Execer supplied by Transact rather than
// reaching for the pooled *sqlx.DB directly — generalizing the teacher's
// Transact, which opened a tx but never actually routed statements through
// it (service/order/repo.go in the original).
type IRepo interface {
	Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error
	CreateOrder(ctx context.Context, ex outbox.Execer, o *Order) error
	GetOrderForUpdate(ctx context.Context, ex outbox.Execer, id string) (Order, error)
	UpdateOrderCAS(ctx context.Context, ex outbox.Execer, o *Order) (bool, error)
	PaymentOutbox() *outbox.Store
	ApprovalOutbox() *outbox.Store
	DB() outbox.DB
}

type repo struct {
	db             *sqlx.DB
	paymentOutbox  *outbox.Store
	approvalOutbox *outbox.Store
}

// NewRepo wires a repo bound to the orders table and its two outbound
// outbox tables (spec.md §3 "PaymentOutboxMessage and ApprovalOutboxMessage
// in the Order service").
func NewRepo(db *sqlx.DB) IRepo {
	return &repo{
		db:             db,
		paymentOutbox:  outbox.NewStore("payment_outbox_messages"),
		approvalOutbox: outbox.NewStore("approval_outbox_messages"),
	}
}

func (r *repo) PaymentOutbox() *outbox.Store  { return r.paymentOutbox }
func (r *repo) ApprovalOutbox() *outbox.Store { return r.approvalOutbox }
func (r *repo) DB() outbox.DB                 { return r.db }

// Transact opens a transaction and passes it to fn as an outbox.Execer, so
// fn can write the order row and either outbox row through the same tx
// (spec.md §4.2 "Invariant: aggregate persisted iff outbox row persisted").
func (r *repo) Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("order: commit tx: %w", err)
	}
	return nil
}

const createOrderQuery = `
	INSERT INTO orders
		(id, customer_id, restaurant_id, delivery_address, items, price, status, failure_messages, tracking_id, version)
	VALUES
		(:id, :customer_id, :restaurant_id, :delivery_address, :items, :price, :status, :failure_messages, :tracking_id, 0)`

func (r *repo) CreateOrder(ctx context.Context, ex outbox.Execer, o *Order) error {
	o.Version = 0
	_, err := sqlx.NamedExecContext(ctx, ex, createOrderQuery, o)
	if err != nil {
		return fmt.Errorf("order: insert order %s: %w", o.ID, err)
	}
	return nil
}

const getOrderForUpdateQuery = `SELECT * FROM orders WHERE id = ? FOR UPDATE`

// GetOrderForUpdate locks the order row inside the caller's transaction so
// the subsequent CAS update in the same transaction cannot lose a race with
// another worker handling a different response for the same saga.
func (r *repo) GetOrderForUpdate(ctx context.Context, ex outbox.Execer, id string) (Order, error) {
	var o Order
	err := sqlx.GetContext(ctx, ex, &o, getOrderForUpdateQuery, id)
	if err == sql.ErrNoRows {
		return Order{}, apperr.NotFoundf("order: no order %s", id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("order: get order %s: %w", id, err)
	}
	return o, nil
}

const updateOrderCASQuery = `
	UPDATE orders
	SET status = ?, failure_messages = ?, version = version + 1
	WHERE id = ? AND version = ?`

// UpdateOrderCAS persists a mutated order guarded by its version column
// (spec.md §5 "read current version, update with WHERE version = :v").
func (r *repo) UpdateOrderCAS(ctx context.Context, ex outbox.Execer, o *Order) (bool, error) {
	failureMessages, err := o.FailureMessages.Value()
	if err != nil {
		return false, err
	}
	res, err := ex.ExecContext(ctx, updateOrderCASQuery, o.Status, failureMessages, o.ID, o.Version)
	if err != nil {
		return false, fmt.Errorf("order: update order %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("order: rows affected order %s: %w", o.ID, err)
	}
	if n == 1 {
		o.Version++
	}
	return n == 1, nil
}
