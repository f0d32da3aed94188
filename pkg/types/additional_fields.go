package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AdditionalField is one named, string-valued destination setting (API keys, URLs, channel ids).
type AdditionalField struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// AdditionalFields keeps destination settings in their configured order, persisted as JSONB.
type AdditionalFields []AdditionalField

// Lookup returns the value of the first field whose name matches case-insensitively.
func (f AdditionalFields) Lookup(name string) (string, bool) {
	target := strings.TrimSpace(name)
	for _, field := range f {
		if strings.EqualFold(strings.TrimSpace(field.Name), target) {
			return field.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing field or appends a new one.
func (f AdditionalFields) Set(name, value string) AdditionalFields {
	for i, field := range f {
		if strings.EqualFold(strings.TrimSpace(field.Name), strings.TrimSpace(name)) {
			out := append(AdditionalFields(nil), f...)
			out[i].Value = value
			return out
		}
	}
	return append(append(AdditionalFields(nil), f...), AdditionalField{Name: name, Value: value})
}

// Value marshals the list into JSON for Postgres.
func (f AdditionalFields) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]AdditionalField(f))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the list.
func (f *AdditionalFields) Scan(value interface{}) error {
	raw, err := jsonBytes("additional fields", value)
	if err != nil {
		return err
	}
	if raw == nil {
		*f = nil
		return nil
	}
	var result []AdditionalField
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*f = result
	return nil
}

func jsonBytes(label string, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%s: unsupported scan type %T", label, value)
	}
}
