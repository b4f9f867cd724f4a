// Package model holds value objects shared across services. Aggregate
// roots stay in their owning service package (spec.md §9 "cyclic or
// polymorphic domain hierarchies collapse into a flat product type per
// aggregate"); only the plain value types that several aggregates embed
// live here.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Address is the delivery address value object (spec.md §3 deliveryAddress).
type Address struct {
	Street     string `db:"street" json:"street" validate:"required"`
	PostalCode string `db:"postal_code" json:"postal_code" validate:"required"`
	City       string `db:"city" json:"city" validate:"required"`
}

// Value stores an Address as a single JSON column on its owning aggregate's
// row, avoiding the nested-struct column-naming ambiguity sqlx would
// otherwise require for a non-embedded struct field.
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("model: marshal address: %w", err)
	}
	return string(b), nil
}

// Scan reads an Address back out of its JSON column.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("model: cannot scan %T into Address", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
