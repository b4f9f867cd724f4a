package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/pkg/money"
	"github.com/sergen116/food-ordering-system/saga_event"
)

// RestaurantReplica is Order's local, read-only copy of a restaurant's
// catalog (SPEC_FULL.md §12), populated from the `restaurant` topic and
// consulted by CreateOrder exactly as the customer replica is (spec.md
// §4.1 "checked via a restaurant snapshot read from the local replica").
type RestaurantReplica struct {
	db *sqlx.DB
}

func NewRestaurantReplica(db *sqlx.DB) *RestaurantReplica {
	return &RestaurantReplica{db: db}
}

type restaurantReplicaRow struct {
	ID       string `db:"id"`
	Active   bool   `db:"active"`
	Products []byte `db:"products"`
}

const upsertRestaurantQuery = `
	INSERT INTO restaurant_replicas (id, active, products)
	VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE active = VALUES(active), products = VALUES(products)`

// Upsert applies a RestaurantModel snapshot published whenever a
// restaurant or its catalog changes.
func (r *RestaurantReplica) Upsert(ctx context.Context, m saga_event.RestaurantModel) error {
	products, err := json.Marshal(m.Products)
	if err != nil {
		return fmt.Errorf("order: marshal restaurant products %s: %w", m.ID, err)
	}
	_, err = r.db.ExecContext(ctx, upsertRestaurantQuery, m.ID, m.Active, products)
	if err != nil {
		return fmt.Errorf("order: upsert restaurant replica %s: %w", m.ID, err)
	}
	return nil
}

const getRestaurantQuery = `SELECT id, active, products FROM restaurant_replicas WHERE id = ?`

// Snapshot loads the RestaurantSnapshot the Order aggregate validates a new
// order against (order.go's validateRestaurant).
func (r *RestaurantReplica) Snapshot(ctx context.Context, restaurantID string) (RestaurantSnapshot, error) {
	var row restaurantReplicaRow
	err := r.db.GetContext(ctx, &row, getRestaurantQuery, restaurantID)
	if err == sql.ErrNoRows {
		return RestaurantSnapshot{}, apperr.NotFoundf("order: no restaurant replica for %s", restaurantID)
	}
	if err != nil {
		return RestaurantSnapshot{}, fmt.Errorf("order: lookup restaurant replica %s: %w", restaurantID, err)
	}

	var products []saga_event.RestaurantProductModel
	if err := json.Unmarshal(row.Products, &products); err != nil {
		return RestaurantSnapshot{}, fmt.Errorf("order: unmarshal restaurant products %s: %w", restaurantID, err)
	}

	priceByProduct := make(map[string]money.Money, len(products))
	for _, p := range products {
		priceByProduct[p.ID] = p.Price
	}

	return RestaurantSnapshot{
		ID:       row.ID,
		Active:   row.Active,
		Products: priceByProduct,
	}, nil
}
