package catalog

import (
	"testing"
	"time"
)

func TestCache_ListingExpiresAtTTL(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	now := start
	c := NewCache(time.Minute, func() time.Time { return now })

	if c.ListingFresh() {
		t.Fatalf("empty cache reported fresh")
	}
	if !c.StoreListing(c.Generation(), []Product{{ID: 1, Name: "a"}}) {
		t.Fatalf("store rejected current generation")
	}

	now = start.Add(time.Minute - time.Millisecond)
	if got, ok := c.Listing(); !ok || len(got) != 1 {
		t.Fatalf("just before ttl: ok=%v len=%d", ok, len(got))
	}

	now = start.Add(time.Minute)
	if c.ListingFresh() {
		t.Fatalf("listing must be stale at exactly ttl")
	}
}

func TestCache_ByIDAgesIndependently(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	now := start
	c := NewCache(10*time.Second, func() time.Time { return now })

	c.Put(c.Generation(), Product{ID: 1, Name: "early"})
	now = start.Add(5 * time.Second)
	c.Put(c.Generation(), Product{ID: 2, Name: "late"})

	now = start.Add(12 * time.Second)
	if _, ok := c.Get(1); ok {
		t.Fatalf("id 1 should have expired")
	}
	if p, ok := c.Get(2); !ok || p.Name != "late" {
		t.Fatalf("id 2: ok=%v p=%+v", ok, p)
	}
}

func TestCache_InvalidateDropsStaleWriters(t *testing.T) {
	c := NewCache(time.Minute, nil)

	before := c.Generation()
	c.StoreListing(before, []Product{{ID: 1}})
	c.Put(before, Product{ID: 1})

	c.InvalidateAll()

	if c.ListingFresh() {
		t.Fatalf("listing survived invalidation")
	}
	if _, ok := c.Get(1); ok {
		t.Fatalf("by-id entry survived invalidation")
	}

	// A read that started before the invalidation must not repopulate.
	if c.StoreListing(before, []Product{{ID: 1}}) || c.Put(before, Product{ID: 1}) {
		t.Fatalf("stale generation accepted")
	}
	if c.ListingFresh() {
		t.Fatalf("stale listing visible")
	}

	if !c.StoreListing(c.Generation(), []Product{{ID: 2}}) {
		t.Fatalf("current generation rejected")
	}
}

func TestNewCache_DefaultTTL(t *testing.T) {
	if got := NewCache(0, nil).TTL(); got != DefaultCacheTTL {
		t.Fatalf("ttl=%v want=%v", got, DefaultCacheTTL)
	}
}
