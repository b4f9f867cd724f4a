package restaurant

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sergen116/food-ordering-system/outbox"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
)

// IRepo is the persistence port for the Restaurant aggregate and its
// single response outbox (ApprovalResponseOutbox, spec.md §3).
type IRepo interface {
	Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error
	GetForUpdate(ctx context.Context, ex outbox.Execer, id string) (Restaurant, error)
	UpdateCAS(ctx context.Context, ex outbox.Execer, r *Restaurant) (bool, error)
	Upsert(ctx context.Context, r *Restaurant) error
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
		responseOutbox: outbox.NewStore("approval_response_outbox_messages"),
	}
}

func (r *repo) ResponseOutbox() *outbox.Store { return r.responseOutbox }
func (r *repo) DB() outbox.DB                 { return r.db }

func (r *repo) Transact(ctx context.Context, fn func(ctx context.Context, ex outbox.Execer) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("restaurant: begin tx: %w", err)
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
		return fmt.Errorf("restaurant: commit tx: %w", err)
	}
	return nil
}

const getForUpdateQuery = `SELECT * FROM restaurants WHERE id = ? FOR UPDATE`

func (r *repo) GetForUpdate(ctx context.Context, ex outbox.Execer, id string) (Restaurant, error) {
	var rest Restaurant
	err := sqlx.GetContext(ctx, ex, &rest, getForUpdateQuery, id)
	if err == sql.ErrNoRows {
		return Restaurant{}, apperr.NotFoundf("restaurant: no restaurant %s", id)
	}
	if err != nil {
		return Restaurant{}, fmt.Errorf("restaurant: get %s: %w", id, err)
	}
	return rest, nil
}

const updateCASQuery = `
	UPDATE restaurants
	SET active = ?, products = ?, version = version + 1
	WHERE id = ? AND version = ?`

func (r *repo) UpdateCAS(ctx context.Context, ex outbox.Execer, rest *Restaurant) (bool, error) {
	products, err := rest.Products.Value()
	if err != nil {
		return false, err
	}
	res, err := ex.ExecContext(ctx, updateCASQuery, rest.Active, products, rest.ID, rest.Version)
	if err != nil {
		return false, fmt.Errorf("restaurant: update %s: %w", rest.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("restaurant: rows affected %s: %w", rest.ID, err)
	}
	if n == 1 {
		rest.Version++
	}
	return n == 1, nil
}

const upsertQuery = `
	INSERT INTO restaurants (id, active, products, version)
	VALUES (:id, :active, :products, 0)
	ON DUPLICATE KEY UPDATE active = VALUES(active), products = VALUES(products)`

// Upsert creates or replaces a restaurant's catalog — used by the
// catalog-management path (outside the saga, not outbox-backed, per
// SPEC_FULL.md §12) rather than the approval flow above.
func (r *repo) Upsert(ctx context.Context, rest *Restaurant) error {
	rest.Version = 0
	_, err := sqlx.NamedExecContext(ctx, r.db, upsertQuery, rest)
	if err != nil {
		return fmt.Errorf("restaurant: upsert %s: %w", rest.ID, err)
	}
	return nil
}
