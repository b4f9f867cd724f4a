package saga_event

import "github.com/sergen116/food-ordering-system/pkg/money"

// RestaurantProductModel is one catalog entry in a RestaurantModel snapshot.
type RestaurantProductModel struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
}

// RestaurantModel is the snapshot Order's local restaurant replica stores,
// published on the `restaurant` topic (SPEC_FULL.md §12). Restaurant
// publishes one row whenever a restaurant or its catalog changes so Order
// can validate a CreateOrder request (spec.md §4.1) against a local,
// eventually-consistent view without a synchronous call.
type RestaurantModel struct {
	ID       string                    `json:"id"`
	Active   bool                      `json:"active"`
	Products []RestaurantProductModel `json:"products"`
}
