package google

import (
	"context"
	"testing"
	"time"
)

func TestNewReadCache(t *testing.T) {
	if c := newReadCache(-1); c != nil {
		t.Fatal("negative TTL should disable the read cache")
	}
	if c := newReadCache(0); c == nil {
		t.Fatal("zero TTL should use the default cache")
	}
}

func TestRead_ServedFromCache(t *testing.T) {
	// svc is nil: any request that reaches the API would panic.
	c := &Client{reads: newReadCache(time.Minute)}
	c.reads.Set(payeesTab.rng(), [][][]any{{
		{"ID", "Name", "TransferAcct"},
		{"p1", "Corner Shop", ""},
	}})

	payees, err := c.Payees(context.Background())
	if err != nil {
		t.Fatalf("Payees() error = %v", err)
	}
	if len(payees) != 1 || payees[0].Name != "Corner Shop" {
		t.Fatalf("payees = %+v", payees)
	}
	if stats := c.reads.Stats(); stats.Hits != 1 {
		t.Fatalf("cache hits = %d, want 1", stats.Hits)
	}
}

func TestTabRangePayees(t *testing.T) {
	if got := transactionsTab.rng(); got != "Transactions!A:I" {
		t.Fatalf("rng() = %q", got)
	}
	if got := payeesTab.rng(); got != "Payees!A:C" {
		t.Fatalf("rng() = %q", got)
	}
}
