package customer

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sergen116/food-ordering-system/outbox"
)

// IRepo is the persistence port for the Customer aggregate and its single
// outbox (spec.md §4.6, SPEC_FULL.md §12).
type IRepo interface {
	Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error
	CreateCustomer(ctx context.Context, ex outbox.Execer, c *Customer) error
	Outbox() *outbox.Store
	DB() outbox.DB
}

type repo struct {
	db     *sqlx.DB
	outbox *outbox.Store
}

func NewRepo(db *sqlx.DB) IRepo {
	return &repo{db: db, outbox: outbox.NewStore("customer_outbox_messages")}
}

func (r *repo) Outbox() *outbox.Store { return r.outbox }
func (r *repo) DB() outbox.DB         { return r.db }

func (r *repo) Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("customer: begin tx: %w", err)
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
		return fmt.Errorf("customer: commit tx: %w", err)
	}
	return nil
}

const createCustomerQuery = `
	INSERT INTO customers (id, username, first_name, last_name, version)
	VALUES (:id, :username, :first_name, :last_name, 0)`

func (r *repo) CreateCustomer(ctx context.Context, ex outbox.Execer, c *Customer) error {
	c.Version = 0
	_, err := sqlx.NamedExecContext(ctx, ex, createCustomerQuery, c)
	if err != nil {
		return fmt.Errorf("customer: create %s: %w", c.ID, err)
	}
	return nil
}
