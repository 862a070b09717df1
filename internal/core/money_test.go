package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true},
		{" 2.50 ", 250, true},
		{"-1", -100, true},
		{"-12,345", -1235, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDollarsToCents(t *testing.T) {
	got, err := DollarsToCents(decimal.RequireFromString("25.5"))
	if err != nil || got != 2550 {
		t.Fatalf("expected 2550, got %d (err=%v)", got, err)
	}
}

func TestMoneyDollars(t *testing.T) {
	if got := (Money{Cents: -1234}).Dollars().String(); got != "-12.34" {
		t.Fatalf("expected -12.34, got %s", got)
	}
}
