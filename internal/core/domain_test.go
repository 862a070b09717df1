package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseYearMonth(t *testing.T) {
	cases := []struct {
		in   string
		want YearMonth
		ok   bool
	}{
		{"2024-01-01", YearMonth{2024, 1}, true},
		{"2024-12-31", YearMonth{2024, 12}, true},
		{"2024-03", YearMonth{2024, 3}, true},
		{"2024-13-01", YearMonth{}, false},
		{"20240101", YearMonth{}, false},
		{"", YearMonth{}, false},
	}
	for _, tc := range cases {
		got, err := ParseYearMonth(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %+v, got %+v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestYearMonthArithmetic(t *testing.T) {
	jan := YearMonth{2024, 1}
	if got := jan.Add(-1); got != (YearMonth{2023, 12}) {
		t.Fatalf("expected 2023-12, got %s", got.Key())
	}
	if got := jan.Add(13); got != (YearMonth{2025, 2}) {
		t.Fatalf("expected 2025-02, got %s", got.Key())
	}
	if !jan.Add(-1).Before(jan) || jan.Before(jan) {
		t.Fatalf("Before ordering broken")
	}
	months := MonthsBack(YearMonth{2024, 2}, 3)
	want := []string{"2024-02", "2024-01", "2023-12"}
	for i, m := range months {
		if m.Key() != want[i] {
			t.Fatalf("month %d: expected %s, got %s", i, want[i], m.Key())
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2025-02-28" {
		t.Fatalf("round trip mismatch: %s", d)
	}
	if _, err := ParseDate("2025-02-30"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestTransactionIsTransfer(t *testing.T) {
	cases := []struct {
		txn  Transaction
		want bool
	}{
		{Transaction{TransferID: "t1"}, true},
		{Transaction{TransferID: "t1", Category: "c1"}, false},
		{Transaction{Category: "c1"}, false},
		{Transaction{}, false},
	}
	for i, tc := range cases {
		if got := tc.txn.IsTransfer(); got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Account: "a1", Date: "2025-01-15", Amount: -100}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Transaction{
		{Date: "2025-01-15"},
		{Account: "a1", Date: "15/01/2025"},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("bad %d expected error", i)
		}
	}
}

func TestRuleValidate(t *testing.T) {
	conds := json.RawMessage(`[{"field":"payee","op":"is","value":"p1"}]`)
	acts := json.RawMessage(`[{"field":"category","op":"set","value":"c1"}]`)

	good := Rule{Stage: RuleStagePre, ConditionsOp: ConditionsAnd, Conditions: conds, Actions: acts}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Rule{
		{Stage: "mid", ConditionsOp: ConditionsAnd, Conditions: conds, Actions: acts},
		{ConditionsOp: "xor", Conditions: conds, Actions: acts},
		{ConditionsOp: ConditionsOr, Conditions: json.RawMessage(`{}`), Actions: acts},
		{ConditionsOp: ConditionsOr, Conditions: conds, Actions: json.RawMessage(`[{"field":"notes"}]`)},
		{ConditionsOp: ConditionsOr, Conditions: conds},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("bad %d expected error", i)
		}
	}
}

func TestAccountOnBudget(t *testing.T) {
	if !(Account{Name: "Checking"}).OnBudget() {
		t.Fatalf("open on-budget account should be on budget")
	}
	if (Account{OffBudget: true}).OnBudget() || (Account{Closed: true}).OnBudget() {
		t.Fatalf("off-budget and closed accounts must be excluded")
	}
}
