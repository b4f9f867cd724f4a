package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Items is the ordered line-item list, persisted as a single JSON column.
// Like FailureMessages, this sidesteps spec.md §9's "cyclic or polymorphic
// domain hierarchies collapse into a flat product type" by keeping Order a
// single-table aggregate instead of normalizing items into a child table.
type Items []Item

func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return "[]", nil
	}
	b, err := json.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("order: marshal items: %w", err)
	}
	return string(b), nil
}

func (it *Items) Scan(value interface{}) error {
	if value == nil {
		*it = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("order: cannot scan %T into Items", value)
	}
	if len(raw) == 0 {
		*it = nil
		return nil
	}
	var out []Item
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("order: unmarshal items: %w", err)
	}
	*it = out
	return nil
}
