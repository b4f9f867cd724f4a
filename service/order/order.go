// Package order implements the Order aggregate, its state machine, and the
// choreographed SAGA engine that drives an order through payment and
// restaurant approval (spec.md §4.1, §4.2). This is the core of the
// system — see spec.md §2's implementation-budget table.
package order

import (
	"github.com/sergen116/food-ordering-system/model"
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/pkg/money"
)

// Status is the Order aggregate's lifecycle state (spec.md §3 orderStatus).
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPaid       Status = "PAID"
	StatusApproved   Status = "APPROVED"
	StatusCancelling Status = "CANCELLING"
	StatusCancelled  Status = "CANCELLED"
)

// Item is one ordered line (spec.md §3 items). The validate tags cover the
// structural checks (SPEC_FULL.md §10); quantity*unitPrice==subTotal and
// price==Σsubtotal are cross-field invariants I1/I2, which stay in
// validateInvariants below since go-playground/validator tags can't
// express them against sibling fields cleanly.
type Item struct {
	ProductID string      `json:"product_id" validate:"required"`
	Quantity  int         `json:"quantity" validate:"gte=1"`
	UnitPrice money.Money `json:"unit_price"`
	SubTotal  money.Money `json:"sub_total"`
}

// RestaurantSnapshot is the slice of a restaurant's replica state Order
// needs to validate a new order against (spec.md §4.1 "checked via a
// restaurant snapshot read from the local replica"). It is a plain value
// passed in by the caller — the aggregate itself never reaches into a
// repository.
type RestaurantSnapshot struct {
	ID       string
	Active   bool
	Products map[string]money.Money // productID -> listed price
}

// Order is the aggregate root (spec.md §3). Cyclic/polymorphic hierarchies
// collapse into this one flat struct plus free functions, per spec.md §9.
type Order struct {
	ID              string        `db:"id"`
	CustomerID      string        `db:"customer_id"`
	RestaurantID    string        `db:"restaurant_id"`
	DeliveryAddress model.Address `db:"delivery_address"`
	Items           Items         `db:"items"`
	Price           money.Money   `db:"price"`
	Status          Status        `db:"status"`
	FailureMessages FailureMessages `db:"failure_messages"`
	TrackingID      string        `db:"tracking_id"`
	// Version guards optimistic updates to the orders table itself,
	// independent of any outbox row's version (spec.md §5).
	Version int `db:"version"`
}

// New validates and constructs a PENDING order. It is the only path that
// creates an Order — all six validation failure modes in spec.md §4.1
// ("items non-empty", "each item price > 0", "subTotal correct", "price
// matches sum", "restaurant active", "products listed at matching price")
// surface as a single apperr.Domain error.
func New(id, customerID, restaurantID string, address model.Address, items []Item, price money.Money, restaurant RestaurantSnapshot) (*Order, error) {
	o := &Order{
		ID:              id,
		CustomerID:      customerID,
		RestaurantID:    restaurantID,
		DeliveryAddress: address,
		Items:           items,
		Price:           price,
		Status:          StatusPending,
		TrackingID:      id, // tracking id is opaque to the customer but stable per order
	}

	if err := o.validateInvariants(); err != nil {
		return nil, err
	}
	if err := o.validateRestaurant(restaurant); err != nil {
		return nil, err
	}
	return o, nil
}

// validateInvariants checks I1 and I2 (spec.md §3): declared price equals
// the sum of subtotals, and each subtotal equals quantity*unitPrice. Every
// transition re-validates these — they can never be violated by a
// transition itself, but a transition is the one place the spec requires
// the check to run (spec.md §4.1 "All transitions validate invariants
// I1–I2 before applying").
func (o *Order) validateInvariants() error {
	if len(o.Items) == 0 {
		return apperr.Domain("order must contain at least one item")
	}

	sum := money.Zero
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return apperr.Domainf("item %s: quantity must be >= 1", item.ProductID)
		}
		if !item.UnitPrice.IsGreaterThanZero() {
			return apperr.Domainf("item %s: unit price must be > 0", item.ProductID)
		}
		expected := item.UnitPrice.MultiplyByQuantity(item.Quantity)
		if !expected.Equals(item.SubTotal) {
			return apperr.Domainf("item %s: subTotal %s does not equal quantity*unitPrice %s", item.ProductID, item.SubTotal, expected)
		}
		sum = sum.Add(item.SubTotal)
	}

	if !sum.Equals(o.Price) {
		return apperr.Domainf("declared price %s does not equal sum of subtotals %s", o.Price, sum)
	}
	return nil
}

func (o *Order) validateRestaurant(r RestaurantSnapshot) error {
	if r.ID != o.RestaurantID {
		return apperr.Domainf("restaurant snapshot %s does not match order restaurant %s", r.ID, o.RestaurantID)
	}
	if !r.Active {
		return apperr.Domainf("restaurant %s is not active", o.RestaurantID)
	}
	for _, item := range o.Items {
		listedPrice, ok := r.Products[item.ProductID]
		if !ok {
			return apperr.Domainf("product %s is not listed by restaurant %s", item.ProductID, o.RestaurantID)
		}
		if !listedPrice.Equals(item.UnitPrice) {
			return apperr.Domainf("product %s price %s does not match listed price %s", item.ProductID, item.UnitPrice, listedPrice)
		}
	}
	return nil
}

// Pay transitions PENDING -> PAID on a successful PaymentCompleted response
// (spec.md §4.2 step 1).
func (o *Order) Pay() error {
	if o.Status != StatusPending {
		return apperr.Domainf("cannot pay order %s: status is %s, expected PENDING", o.ID, o.Status)
	}
	if err := o.validateInvariants(); err != nil {
		return err
	}
	o.Status = StatusPaid
	return nil
}

// Approve transitions PAID -> APPROVED on a successful Approved response
// (spec.md §4.2 step 2). APPROVED is absorbing (I4).
func (o *Order) Approve() error {
	if o.Status != StatusPaid {
		return apperr.Domainf("cannot approve order %s: status is %s, expected PAID", o.ID, o.Status)
	}
	if err := o.validateInvariants(); err != nil {
		return err
	}
	o.Status = StatusApproved
	return nil
}

// InitCancel starts cancellation. From PENDING (payment-failed path, spec.md
// §4.2 "PaymentFailed") it goes straight to CANCELLED — there is nothing to
// compensate yet. From PAID (restaurant-rejection path) it goes to
// CANCELLING, pending the payment compensation round-trip.
func (o *Order) InitCancel(failureMessages []string) error {
	if err := o.validateInvariants(); err != nil {
		return err
	}
	switch o.Status {
	case StatusPending:
		o.Status = StatusCancelled
	case StatusPaid:
		o.Status = StatusCancelling
	default:
		return apperr.Domainf("cannot initCancel order %s: status is %s, expected PENDING or PAID", o.ID, o.Status)
	}
	o.addFailureMessages(failureMessages)
	return nil
}

// Cancel finalizes cancellation once the compensating payment credit has
// been acknowledged (spec.md §4.2 "PaymentCancelled"). CANCELLED is
// absorbing (I4).
func (o *Order) Cancel(failureMessages []string) error {
	if o.Status != StatusCancelling {
		return apperr.Domainf("cannot cancel order %s: status is %s, expected CANCELLING", o.ID, o.Status)
	}
	if err := o.validateInvariants(); err != nil {
		return err
	}
	o.Status = StatusCancelled
	o.addFailureMessages(failureMessages)
	return nil
}

// addFailureMessages merges in new failure strings with set semantics
// (spec.md §4.2 "duplicates are collapsed by set semantics") and is a no-op
// on an empty slice.
func (o *Order) addFailureMessages(messages []string) {
	if len(messages) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(o.FailureMessages))
	for _, m := range o.FailureMessages {
		seen[m] = struct{}{}
	}
	for _, m := range messages {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		o.FailureMessages = append(o.FailureMessages, m)
	}
}

// IsTerminal reports whether the order is in an absorbing state (I4).
func (o *Order) IsTerminal() bool {
	return o.Status == StatusCancelled || o.Status == StatusApproved
}
