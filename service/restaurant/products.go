package restaurant

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func (p Products) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("restaurant: marshal products: %w", err)
	}
	return string(b), nil
}

func (p *Products) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("restaurant: cannot scan %T into Products", value)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	var out []Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("restaurant: unmarshal products: %w", err)
	}
	*p = out
	return nil
}
