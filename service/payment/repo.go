package payment

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sergen116/food-ordering-system/outbox"
)

// IRepo is the persistence port for CreditHistory plus the service's single
// response outbox (PaymentResponseOutbox, spec.md §3). Generalizes the
// teacher's service/payment/repo.go, which kept a plain integer Account
// balance and a separate processed_orders table instead of the
// (sagaId, type) dedupe-outbox primitive spec.md §4.4 requires.
type IRepo interface {
	Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error
	LockCreditHistoryForUpdate(ctx context.Context, ex outbox.Execer, customerID string) (CreditHistory, error)
	UpdateCreditHistoryCAS(ctx context.Context, ex outbox.Execer, c *CreditHistory) (bool, error)
	ResponseOutbox() *outbox.Store
	DB() outbox.DB
}

type repo struct {
	db             *sqlx.DB
	responseOutbox *outbox.Store
}

func NewRepo(db *sqlx.DB) IRepo {
	return &repo{
		db:             db,
		responseOutbox: outbox.NewStore("payment_response_outbox_messages"),
	}
}

func (r *repo) ResponseOutbox() *outbox.Store { return r.responseOutbox }
func (r *repo) DB() outbox.DB                 { return r.db }

func (r *repo) Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("payment: begin tx: %w", err)
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
		return fmt.Errorf("payment: commit tx: %w", err)
	}
	return nil
}

const lockCreditHistoryQuery = `SELECT * FROM credit_histories WHERE customer_id = ? FOR UPDATE`
const insertCreditHistoryQuery = `
	INSERT INTO credit_histories (customer_id, total_credit_amount, total_debit_amount, version)
	VALUES (:customer_id, :total_credit_amount, :total_debit_amount, 0)`

// LockCreditHistoryForUpdate loads a customer's credit history, creating a
// zero-balance row on first sight (spec.md §4.4 "load or create").
func (r *repo) LockCreditHistoryForUpdate(ctx context.Context, ex outbox.Execer, customerID string) (CreditHistory, error) {
	var c CreditHistory
	err := sqlx.GetContext(ctx, ex, &c, lockCreditHistoryQuery, customerID)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return CreditHistory{}, fmt.Errorf("payment: lock credit history %s: %w", customerID, err)
	}

	c = NewCreditHistory(customerID)
	if _, err := sqlx.NamedExecContext(ctx, ex, insertCreditHistoryQuery, c); err != nil {
		return CreditHistory{}, fmt.Errorf("payment: create credit history %s: %w", customerID, err)
	}
	return c, nil
}

const updateCreditHistoryCASQuery = `
	UPDATE credit_histories
	SET total_credit_amount = ?, total_debit_amount = ?, version = version + 1
	WHERE customer_id = ? AND version = ?`

// UpdateCreditHistoryCAS persists c guarded by its version column.
func (r *repo) UpdateCreditHistoryCAS(ctx context.Context, ex outbox.Execer, c *CreditHistory) (bool, error) {
	res, err := ex.ExecContext(ctx, updateCreditHistoryCASQuery, c.TotalCreditAmount, c.TotalDebitAmount, c.CustomerID, c.Version)
	if err != nil {
		return false, fmt.Errorf("payment: update credit history %s: %w", c.CustomerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("payment: rows affected credit history %s: %w", c.CustomerID, err)
	}
	if n == 1 {
		c.Version++
	}
	return n == 1, nil
}
