package types

import "testing"

func TestAdditionalFieldsLookupIsCaseInsensitive(t *testing.T) {
	fields := AdditionalFields{{Name: "URL", Value: "https://a"}, {Name: "apiKey", Value: "k"}}

	if got, ok := fields.Lookup("url"); !ok || got != "https://a" {
		t.Fatalf("expected url lookup to match, got %q %v", got, ok)
	}
	if _, ok := fields.Lookup("token"); ok {
		t.Fatalf("expected missing field lookup to fail")
	}
}

func TestAdditionalFieldsSetDoesNotMutateReceiver(t *testing.T) {
	fields := AdditionalFields{{Name: "url", Value: "https://old"}}

	updated := fields.Set("URL", "https://new")
	if fields[0].Value != "https://old" {
		t.Fatalf("receiver mutated: %+v", fields)
	}
	if got, _ := updated.Lookup("url"); got != "https://new" {
		t.Fatalf("expected replaced value, got %q", got)
	}

	appended := fields.Set("apiKey", "k")
	if len(appended) != 2 || appended[1].Name != "apiKey" {
		t.Fatalf("expected appended field, got %+v", appended)
	}
}

func TestAdditionalFieldsScanPreservesOrder(t *testing.T) {
	var fields AdditionalFields
	if err := fields.Scan([]byte(`[{"name":"b","value":"2"},{"name":"a","value":"1"}]`)); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(fields) != 2 || fields[0].Name != "b" || fields[1].Name != "a" {
		t.Fatalf("unexpected fields %+v", fields)
	}
	if err := fields.Scan(42); err == nil {
		t.Fatalf("expected unsupported scan type error")
	}
}

func TestOrderBumpTranslate(t *testing.T) {
	var empty OrderBump
	if _, ok := empty.Translate("p1"); ok {
		t.Fatalf("nil order bump must not translate")
	}

	bump := OrderBump{"p1": "d1", "p2": ""}
	if got, ok := bump.Translate("p1"); !ok || got != "d1" {
		t.Fatalf("expected d1, got %q", got)
	}
	if _, ok := bump.Translate("p2"); ok {
		t.Fatalf("blank destination ids are ignored")
	}

	val, err := OrderBump{}.Value()
	if err != nil || val != nil {
		t.Fatalf("expected empty order bump to store NULL, got %v %v", val, err)
	}
}

func TestDeliveryErrorScanNil(t *testing.T) {
	d := DeliveryError{Message: "x"}
	if err := d.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if d.Message != "" {
		t.Fatalf("expected reset error, got %+v", d)
	}
	if err := d.Scan(`{"message":"Hotzapp API error: 503 - down","code":"DESTINATION_HTTP_ERROR"}`); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if d.Code != "DESTINATION_HTTP_ERROR" {
		t.Fatalf("unexpected code %q", d.Code)
	}
}
