package mapping

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

func TestRequireField(t *testing.T) {
	rule := &models.Integration{AdditionalFields: types.AdditionalFields{
		{Name: "ApiKey", Value: " secret "},
		{Name: "url", Value: "   "},
	}}

	got, err := RequireField(rule, "Hotzapp", "apiKey")
	if err != nil || got != "secret" {
		t.Fatalf("expected trimmed secret, got %q (%v)", got, err)
	}

	_, err = RequireField(rule, "Hotzapp", "url")
	de := AsDispatchError(err)
	if de == nil || de.Code != CodeMissingField {
		t.Fatalf("expected blank field to count as missing, got %v", err)
	}
	if de.Message != `missing destination field "url" for Hotzapp` {
		t.Fatalf("unexpected message %q", de.Message)
	}

	if _, ok := Field(nil, "url"); ok {
		t.Fatalf("nil rule has no fields")
	}
}

func TestUnwrapData(t *testing.T) {
	wrapped := json.RawMessage(`{"data":{"a":1}}`)
	if got := string(UnwrapData(wrapped)); got != `{"a":1}` {
		t.Fatalf("expected inner data, got %s", got)
	}

	capitalised := json.RawMessage(`{"CreatedAt":"2024-01-01","Data":{"Buyer":{}}}`)
	if got := string(UnwrapData(capitalised)); got != string(capitalised) {
		t.Fatalf("capitalised Data must not be unwrapped, got %s", got)
	}

	nullData := json.RawMessage(`{"data":null,"x":1}`)
	if got := string(UnwrapData(nullData)); got != string(nullData) {
		t.Fatalf("null data falls back to payload, got %s", got)
	}

	if got := string(UnwrapData(json.RawMessage(`[1,2]`))); got != `[1,2]` {
		t.Fatalf("non-object payloads pass through, got %s", got)
	}
}

func TestDecodeInvalidPayload(t *testing.T) {
	var dest struct{ A int }
	err := Decode("Hotzapp", json.RawMessage(`{"A":"nope"}`), &dest)
	de := AsDispatchError(err)
	if de == nil || de.Code != CodeInvalidPayload {
		t.Fatalf("expected invalid payload error, got %v", err)
	}
}

func TestAsDispatchErrorWrapsForeignErrors(t *testing.T) {
	plain := errors.New("boom")
	de := AsDispatchError(plain)
	if de.Code != CodeDispatchUnspecified || de.Message != "boom" || !errors.Is(de, plain) {
		t.Fatalf("unexpected wrap %+v", de)
	}
	if AsDispatchError(nil) != nil {
		t.Fatalf("nil stays nil")
	}
}
