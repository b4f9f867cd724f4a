package order

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sergen116/food-ordering-system/saga_event"
)

// CustomerReplica is Order's local, read-only copy of customer identity
// (spec.md §4.6), populated from the `customer` topic. CreateOrder only
// needs to know the replica has a row for the referenced customer before
// validating an order against it.
type CustomerReplica struct {
	db *sqlx.DB
}

func NewCustomerReplica(db *sqlx.DB) *CustomerReplica {
	return &CustomerReplica{db: db}
}

const upsertCustomerQuery = `
	INSERT INTO customer_replicas (id, username, first_name, last_name)
	VALUES (?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE username = VALUES(username), first_name = VALUES(first_name), last_name = VALUES(last_name)`

// Upsert applies a CustomerModel snapshot. Idempotent by construction — a
// replayed `customer` message just overwrites the row with the same
// values, so this needs no outbox-style dedupe (spec.md §12 reasoning for
// the `restaurant` topic applies identically here).
func (c *CustomerReplica) Upsert(ctx context.Context, m saga_event.CustomerModel) error {
	_, err := c.db.ExecContext(ctx, upsertCustomerQuery, m.ID, m.Username, m.FirstName, m.LastName)
	if err != nil {
		return fmt.Errorf("order: upsert customer replica %s: %w", m.ID, err)
	}
	return nil
}

const getCustomerQuery = `SELECT id, username, first_name, last_name FROM customer_replicas WHERE id = ?`

// customerReplicaRow carries db tags for sqlx's column mapping — unlike
// saga_event.CustomerModel, which only carries json tags for the wire
// format and would silently fail to map the first_name/last_name columns.
type customerReplicaRow struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

// Exists reports whether the replica has ever observed this customer.
func (c *CustomerReplica) Exists(ctx context.Context, customerID string) (bool, error) {
	var row customerReplicaRow
	err := c.db.GetContext(ctx, &row, getCustomerQuery, customerID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("order: lookup customer replica %s: %w", customerID, err)
	}
	return true, nil
}
