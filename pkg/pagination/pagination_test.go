package pagination

import "testing"

func TestParamsNormalize(t *testing.T) {
	tests := []struct {
		in   Params
		want Params
	}{
		{in: Params{}, want: Params{Page: 1, Limit: 10}},
		{in: Params{Page: -3, Limit: 500}, want: Params{Page: 1, Limit: 100}},
		{in: Params{Page: 4, Limit: 25}, want: Params{Page: 4, Limit: 25}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParamsOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
}

func TestNewMetaTotalPages(t *testing.T) {
	meta := NewMeta(Params{Page: 2, Limit: 10}, 21)
	if meta.TotalPages != 3 || meta.Page != 2 || meta.Limit != 10 || meta.Total != 21 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if got := TotalPages(0, 10); got != 0 {
		t.Fatalf("expected 0 pages for empty total, got %d", got)
	}
}
