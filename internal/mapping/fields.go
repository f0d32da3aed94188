package mapping

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

// Field resolves a named destination setting.
func Field(rule *models.Integration, name string) (string, bool) {
	if rule == nil {
		return "", false
	}
	value, ok := rule.AdditionalFields.Lookup(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// RequireField resolves a named destination setting or fails with MISSING_DESTINATION_FIELD.
func RequireField(rule *models.Integration, platform, name string) (string, error) {
	value, ok := Field(rule, name)
	if !ok {
		return "", missingField(platform, name)
	}
	return value, nil
}

// UnwrapData returns payload.data when the source wrapped its event, otherwise the payload itself.
func UnwrapData(payload json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return payload
	}
	// exact-case lookup: sources such as lastlink use a capitalised "Data" inside the event itself
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return payload
	}
	data := bytes.TrimSpace(envelope["data"])
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return payload
	}
	return data
}

// Decode unwraps and decodes the inbound payload into dest.
func Decode(platform string, payload json.RawMessage, dest any) error {
	if err := json.Unmarshal(UnwrapData(payload), dest); err != nil {
		return InvalidPayload(platform, err)
	}
	return nil
}
