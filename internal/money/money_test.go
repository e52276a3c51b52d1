package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in      string
		want    Currency
		wantErr bool
	}{
		{"USD", USD, false},
		{"usd", USD, false},
		{" ars ", ARS, false},
		{"GBP", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseCurrency(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseCurrency(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseCurrency(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCurrency(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFromFloatQuantizes(t *testing.T) {
	got := FromFloat(10.005)
	if got.Exponent() < -2 {
		t.Fatalf("expected two decimal places, got %s", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	a := decimal.RequireFromString("100.00")
	if !WithinTolerance(a, decimal.RequireFromString("100.01")) {
		t.Fatal("0.01 drift should be within tolerance")
	}
	if WithinTolerance(a, decimal.RequireFromString("100.02")) {
		t.Fatal("0.02 drift should exceed tolerance")
	}
}
