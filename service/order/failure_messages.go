package order

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FailureMessages is the set of accumulated failure strings on an order
// (spec.md §3). spec.md §9's open questions flag delimiter-joined string
// storage as fragile for messages that might contain the delimiter; this
// stores the set as a JSON array instead, so no message content can ever
// corrupt the encoding.
type FailureMessages []string

// Value implements driver.Valuer for sqlx writes.
func (f FailureMessages) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("order: marshal failure messages: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for sqlx reads.
func (f *FailureMessages) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("order: cannot scan %T into FailureMessages", value)
	}
	if len(raw) == 0 {
		*f = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("order: unmarshal failure messages: %w", err)
	}
	*f = out
	return nil
}
