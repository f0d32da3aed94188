package types

import (
	"database/sql/driver"
	"encoding/json"
)

// DeliveryError is the structured failure stored on an ERROR delivery record.
type DeliveryError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Value marshals the error into JSON for Postgres.
func (d DeliveryError) Value() (driver.Value, error) {
	buf, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the error.
func (d *DeliveryError) Scan(value interface{}) error {
	raw, err := jsonBytes("delivery error", value)
	if err != nil {
		return err
	}
	if raw == nil {
		*d = DeliveryError{}
		return nil
	}
	return json.Unmarshal(raw, d)
}
