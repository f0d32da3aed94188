package types

import (
	"database/sql/driver"
	"encoding/json"
)

// OrderBump maps source-side product identifiers to destination-side identifiers.
type OrderBump map[string]string

// Translate returns the destination identifier for a source product, if configured.
func (o OrderBump) Translate(sourceProductID string) (string, bool) {
	if o == nil || sourceProductID == "" {
		return "", false
	}
	dest, ok := o[sourceProductID]
	if !ok || dest == "" {
		return "", false
	}
	return dest, true
}

// Value marshals the map into JSON for Postgres; an empty map is stored as NULL.
func (o OrderBump) Value() (driver.Value, error) {
	if len(o) == 0 {
		return nil, nil
	}
	buf, err := json.Marshal(map[string]string(o))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the map.
func (o *OrderBump) Scan(value interface{}) error {
	raw, err := jsonBytes("order bump", value)
	if err != nil {
		return err
	}
	if raw == nil {
		*o = nil
		return nil
	}
	result := make(OrderBump)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*o = result
	return nil
}
