package normalize

import (
	"encoding/json"
	"testing"
)

func TestParseMajorUnits_Scales(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want int64
	}{
		{"float", 145.00, 14500},
		{"string", "74.00", 7400},
		{"json number", json.Number("129.99"), 12999},
		{"int", 80, 8000},
		{"half cent rounds away", "0.015", 2},
		{"negative half rounds away", "-0.015", -2},
	}
	for _, tc := range cases {
		got := ParseMajorUnits(tc.raw)
		if got == nil {
			t.Fatalf("%s: got nil, want %d", tc.name, tc.want)
		}
		if *got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, *got, tc.want)
		}
	}
}

func TestParseMajorUnits_NilNeverZero(t *testing.T) {
	for _, raw := range []any{nil, "", "  ", "abc", struct{}{}} {
		if got := ParseMajorUnits(raw); got != nil {
			t.Fatalf("raw=%v: got %d, want nil", raw, *got)
		}
	}
}

func TestParseMinorUnits_NoScaling(t *testing.T) {
	got := ParseMinorUnits("14500")
	if got == nil || *got != 14500 {
		t.Fatalf("got %v, want 14500", got)
	}
	got = ParseMinorUnits(json.Number("9900"))
	if got == nil || *got != 9900 {
		t.Fatalf("got %v, want 9900", got)
	}
}

func TestParseMinorUnits_Invalid(t *testing.T) {
	for _, raw := range []any{nil, "", "n/a"} {
		if got := ParseMinorUnits(raw); got != nil {
			t.Fatalf("raw=%v: got %d, want nil", raw, *got)
		}
	}
}
