// Package restaurant implements the Restaurant step service (spec.md
// §4.5): it consumes restaurant-approval-request, checks the restaurant's
// own catalog for availability, and publishes Approved or Rejected on
// restaurant-approval-response. It also owns the catalog that feeds the
// `restaurant` read-model topic (SPEC_FULL.md §12).
package restaurant

import (
	"github.com/sergen116/food-ordering-system/pkg/apperr"
	"github.com/sergen116/food-ordering-system/pkg/money"
)

// Product is one catalog entry a Restaurant sells.
type Product struct {
	ID                string      `json:"id" db:"id"`
	Name              string      `json:"name" db:"name"`
	Price             money.Money `json:"price" db:"price"`
	AvailableQuantity int         `json:"available_quantity" db:"available_quantity"`
}

// Products is the JSON-backed catalog column on the restaurants table.
type Products []Product

// Restaurant is the aggregate root: an active/inactive flag plus a catalog
// of products with price and available quantity.
type Restaurant struct {
	ID       string   `db:"id"`
	Active   bool     `db:"active"`
	Products Products `db:"products"`
	Version  int      `db:"version"`
}

// RequestedProduct is one line of an ApprovalRequest's products, stripped
// of the wire type so the aggregate method doesn't depend on saga_event
// (spec.md §9 "generated wire-format classes must not leak into domain
// code").
type RequestedProduct struct {
	ID       string
	Quantity int
}

// Validate checks spec.md §4.5's rule: restaurant active, every requested
// product listed, and enough available quantity for each. It returns the
// set of failure messages rather than a single error so Rejected can carry
// all the reasons at once, per spec.md §4.2's accumulate-with-set-semantics
// treatment of failure messages elsewhere in the system.
func (r *Restaurant) Validate(requested []RequestedProduct) []string {
	var failures []string

	if !r.Active {
		failures = append(failures, "restaurant is not active")
		return failures
	}

	catalog := make(map[string]Product, len(r.Products))
	for _, p := range r.Products {
		catalog[p.ID] = p
	}

	for _, req := range requested {
		p, ok := catalog[req.ID]
		if !ok {
			failures = append(failures, "product "+req.ID+" is not listed")
			continue
		}
		if p.AvailableQuantity < req.Quantity {
			failures = append(failures, "product "+req.ID+" does not have enough available quantity")
		}
	}
	return failures
}

// Reserve decrements available quantity for every requested product. Only
// called after Validate has already returned no failures.
func (r *Restaurant) Reserve(requested []RequestedProduct) error {
	byID := make(map[string]int, len(r.Products))
	for i, p := range r.Products {
		byID[p.ID] = i
	}
	for _, req := range requested {
		idx, ok := byID[req.ID]
		if !ok {
			return apperr.Domainf("restaurant %s: product %s not found during reservation", r.ID, req.ID)
		}
		if r.Products[idx].AvailableQuantity < req.Quantity {
			return apperr.Domainf("restaurant %s: product %s oversold during reservation", r.ID, req.ID)
		}
		r.Products[idx].AvailableQuantity -= req.Quantity
	}
	return nil
}
