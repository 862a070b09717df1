package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"ledgerkit/internal/amqp"
	"ledgerkit/internal/ledger/memory"
	"ledgerkit/internal/services"
	"ledgerkit/internal/tools"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	store, err := memory.NewFromSeed(memory.Seed{
		Accounts: []memory.SeedAccount{{ID: "chk", Name: "Checking", Type: "checking"}},
		Transactions: []memory.SeedTransaction{
			{ID: "t1", Account: "chk", Date: "2024-03-01", Amount: 125000},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	var stdout, stderr bytes.Buffer
	a := &app{
		reg: tools.New(tools.Deps{
			Ledger:  store,
			Service: services.NewLedgerService(store, nil, nil),
			Now:     func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) },
		}),
		stdout: &stdout,
		stderr: &stderr,
	}
	return a, &stdout, &stderr
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		code   int
		stdout string
		stderr string
	}{
		{name: "no command", args: nil, code: exitUsage, stderr: "Usage: ledgerctl"},
		{name: "help", args: []string{"help"}, code: exitOK, stdout: "Commands:"},
		{name: "unknown command", args: []string{"frobnicate"}, code: exitUsage, stderr: `unknown command "frobnicate"`},
		{name: "tools", args: []string{"tools"}, code: exitOK, stdout: "balance-history"},
		{name: "call without name", args: []string{"call"}, code: exitUsage, stderr: "usage: ledgerctl call"},
		{name: "call", args: []string{"call", "get-accounts"}, code: exitOK, stdout: `"balance": "$1,250.00"`},
		{name: "call with args", args: []string{"call", "get-transactions", `{"accountId":"chk"}`}, code: exitOK, stdout: "Matching Transactions: 1/1"},
		{name: "call bad json", args: []string{"call", "get-accounts", "{"}, code: exitUsage, stderr: "valid JSON"},
		{name: "tool error", args: []string{"call", "get-transactions"}, code: exitError, stderr: "accountId is required"},
		{name: "unknown tool", args: []string{"call", "nope"}, code: exitUsage, stderr: "Error: Unknown tool nope"},
		{name: "prompt list", args: []string{"prompt"}, code: exitOK, stdout: "financial-insights"},
		{name: "prompt", args: []string{"prompt", "budget-review", `{"months":"2"}`}, code: exitOK, stdout: "Budget review for the past 2 months"},
		{name: "unknown prompt", args: []string{"prompt", "nope"}, code: exitUsage, stderr: "unknown prompt"},
		{name: "resource list", args: []string{"resource"}, code: exitOK, stdout: "ledger://accounts/chk"},
		{name: "resource read", args: []string{"resource", "ledger://accounts/chk"}, code: exitOK, stdout: "# Account: Checking"},
		{name: "resource missing", args: []string{"resource", "ledger://accounts/nope"}, code: exitError, stderr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, stdout, stderr := newTestApp(t)
			if code := a.run(context.Background(), tt.args); code != tt.code {
				t.Fatalf("exit code = %d, want %d\nstdout: %s\nstderr: %s", code, tt.code, stdout, stderr)
			}
			if tt.stdout != "" && !strings.Contains(stdout.String(), tt.stdout) {
				t.Errorf("stdout %q missing %q", stdout.String(), tt.stdout)
			}
			if tt.stderr != "" && !strings.Contains(stderr.String(), tt.stderr) {
				t.Errorf("stderr %q missing %q", stderr.String(), tt.stderr)
			}
		})
	}
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	ev := amqp.NewLedgerEvent(amqp.OpCreate, "transaction", "tx-1")
	printEvent(&buf, ev)

	out := buf.String()
	if !strings.Contains(out, "transaction.create") || !strings.HasSuffix(out, " tx-1\n") {
		t.Fatalf("unexpected event line %q", out)
	}
}
