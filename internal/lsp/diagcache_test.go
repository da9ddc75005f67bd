package lsp

import (
	"testing"
	"time"
)

func TestDiagCacheExactContentMatch(t *testing.T) {
	c := newDiagCache()
	diags := []lspDiagnostic{{Message: "boom"}}
	c.put("/p/a.asp", "<% Dim x", diags)

	got, ok := c.get("/p/a.asp", "<% Dim x")
	if !ok || len(got) != 1 || got[0].Message != "boom" {
		t.Fatalf("expected a hit, got %v %v", got, ok)
	}

	// Any content difference, even whitespace, is a miss.
	if _, ok := c.get("/p/a.asp", "<% Dim x "); ok {
		t.Fatal("whitespace change must miss")
	}
	if _, ok := c.get("/p/other.asp", "<% Dim x"); ok {
		t.Fatal("unknown path must miss")
	}
}

func TestDiagCacheRemove(t *testing.T) {
	c := newDiagCache()
	c.put("/p/a.asp", "x", nil)
	c.remove("/p/a.asp")
	if _, ok := c.get("/p/a.asp", "x"); ok {
		t.Fatal("removed entry must miss")
	}
}

func TestDiagCacheSweep(t *testing.T) {
	c := newDiagCache()
	c.put("/p/fresh.asp", "a", nil)
	c.put("/p/stale.asp", "b", nil)

	c.mu.Lock()
	entry := c.entries["/p/stale.asp"]
	entry.computedAt = time.Now().Add(-2 * time.Hour)
	c.entries["/p/stale.asp"] = entry
	c.mu.Unlock()

	if removed := c.sweep(time.Hour); removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if c.len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.len())
	}
	if _, ok := c.get("/p/fresh.asp", "a"); !ok {
		t.Fatal("fresh entry must survive the sweep")
	}
}
