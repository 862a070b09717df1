package cache

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *clock) {
	clk := &clock{t: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
	return NewLRUCache[string](size, ttl).WithClock(clk.now), clk
}

func TestLRUCache_Expiration(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)

	c.Set("accounts", "v1")
	if got, ok := c.Get("accounts"); !ok || got != "v1" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}

	clk.advance(time.Minute)
	if _, ok := c.Get("accounts"); ok {
		t.Fatal("entry should expire at its TTL")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry not dropped, size=%d", c.Size())
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry should be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("%s should still be cached", key)
		}
	}

	c.Set("a", "updated")
	if got, _ := c.Get("a"); got != "updated" {
		t.Fatalf("overwrite lost, got %q", got)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_CleanExpiredAndPurge(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)

	c.Set("old", "x")
	clk.advance(45 * time.Second)
	c.Set("new", "y")
	clk.advance(30 * time.Second)

	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := c.Get("new"); !ok {
		t.Fatal("live entry removed")
	}

	c.Delete("new")
	c.Set("x", "1")
	c.Set("y", "2")
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
	c.Set("z", "3")
	if _, ok := c.Get("z"); !ok {
		t.Fatal("cache unusable after purge")
	}
}
