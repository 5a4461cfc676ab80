package catalog

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"
)

const spiceSeed = `[
	{"id": 1, "name": "Turmeric", "price": 50, "category": "Ground"},
	{"id": 2, "name": "Cumin", "price": 150, "category": "Whole"},
	{"id": 3, "name": "Cardamom", "price": 300, "category": "Whole"}
]`

func newTestService(t *testing.T, store Store) (*Service, *Cache) {
	t.Helper()
	return newTestServiceAt(t, store, nil)
}

func newTestServiceAt(t *testing.T, store Store, now func() time.Time) (*Service, *Cache) {
	t.Helper()

	cache := NewCache(time.Minute, now)
	svc := NewService(Deps{
		Store: store,
		Cache: cache,
		Seed:  NewSeedLoader(fstest.MapFS{"products.json": {Data: []byte(spiceSeed)}}, "products.json", NewSequenceIDs(100), nil),
		IDs:   NewSequenceIDs(10_000),
	})
	return svc, cache
}

// failingStore reports itself reachable but fails every read with err.
type failingStore struct {
	*MemStore
	err error
}

func (s *failingStore) Find(context.Context, Filter) ([]Product, error) { return nil, s.err }

func (s *failingStore) FindOne(context.Context, int64) (Product, bool, error) {
	return Product{}, false, s.err
}

func TestService_StoreDownServesFilteredFallback(t *testing.T) {
	store := NewMemStore()
	store.SetAvailable(false)
	svc, _ := newTestService(t, store)

	got, src, err := svc.List(context.Background(), Filter{Min: Float(100), Max: Float(200)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if src != SourceFallback {
		t.Fatalf("source=%s want=%s", src, SourceFallback)
	}
	if len(got) != 1 || got[0].ID != 2 || got[0].Price != 150 {
		t.Fatalf("got=%+v", got)
	}
}

func TestService_TransientStoreErrorFallsBack(t *testing.T) {
	store := &failingStore{MemStore: NewMemStore(), err: unavailable(context.DeadlineExceeded)}
	svc, _ := newTestService(t, store)

	got, src, err := svc.List(context.Background(), Filter{Category: "Whole"})
	if err != nil || src != SourceFallback || len(got) != 2 {
		t.Fatalf("got=%+v src=%s err=%v", got, src, err)
	}

	p, src, err := svc.Get(context.Background(), 3)
	if err != nil || src != SourceFallback || p.Name != "Cardamom" {
		t.Fatalf("p=%+v src=%s err=%v", p, src, err)
	}
}

func TestService_NonTransientStoreErrorIsReadFailure(t *testing.T) {
	store := &failingStore{MemStore: NewMemStore(), err: errors.New("bad query")}
	svc, _ := newTestService(t, store)

	if _, _, err := svc.List(context.Background(), Filter{}); !errors.Is(err, ErrRead) {
		t.Fatalf("List err=%v want ErrRead", err)
	}
	if _, _, err := svc.Get(context.Background(), 1); !errors.Is(err, ErrRead) {
		t.Fatalf("Get err=%v want ErrRead", err)
	}
}

func TestService_UnfilteredListingIsCached(t *testing.T) {
	store := NewMemStore(Product{ID: 1, Name: "Salt", Price: 20})
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if _, src, _ := svc.List(ctx, Filter{}); src != SourceStore {
		t.Fatalf("first read source=%s", src)
	}

	store.SetAvailable(false)
	got, src, err := svc.List(ctx, Filter{})
	if err != nil || src != SourceCache || len(got) != 1 || got[0].Name != "Salt" {
		t.Fatalf("got=%+v src=%s err=%v", got, src, err)
	}

	// Filtered reads bypass the listing cache.
	if _, src, _ := svc.List(ctx, Filter{Query: "salt"}); src != SourceFallback {
		t.Fatalf("filtered read source=%s want=%s", src, SourceFallback)
	}
}

func TestService_FilteredReadDoesNotFillListingCache(t *testing.T) {
	store := NewMemStore(Product{ID: 1, Name: "Salt", Price: 20}, Product{ID: 2, Name: "Sugar", Price: 40})
	svc, cache := newTestService(t, store)

	if _, _, err := svc.List(context.Background(), Filter{Query: "salt"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if cache.ListingFresh() {
		t.Fatalf("filtered result must not be cached as the full listing")
	}
}

func TestService_CreateVisibleImmediately(t *testing.T) {
	store := NewMemStore(Product{ID: 1, Name: "Salt", Price: 20})
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if _, _, err := svc.List(ctx, Filter{}); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	created, err := svc.Create(ctx, ProductInput{Name: "Garam Masala", Price: 120, Category: "Blend"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 10_000 {
		t.Fatalf("id=%d want=10000", created.ID)
	}

	got, src, err := svc.List(ctx, Filter{})
	if err != nil || src != SourceStore {
		t.Fatalf("src=%s err=%v", src, err)
	}
	if len(got) != 2 || got[1].Name != "Garam Masala" {
		t.Fatalf("new product not visible: %+v", got)
	}
}

func TestService_UpdateAndDeleteInvalidate(t *testing.T) {
	store := NewMemStore(Product{ID: 1, Name: "Salt", Price: 20})
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if _, _, err := svc.Get(ctx, 1); err != nil {
		t.Fatalf("warm: %v", err)
	}

	if _, err := svc.Update(ctx, 1, ProductInput{Name: "Rock Salt", Price: 25}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p, _, err := svc.Get(ctx, 1)
	if err != nil || p.Name != "Rock Salt" || p.Price != 25 {
		t.Fatalf("after update p=%+v err=%v", p, err)
	}

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := svc.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete err=%v want ErrNotFound", err)
	}
}

func TestService_NotFound(t *testing.T) {
	svc, _ := newTestService(t, NewMemStore())
	ctx := context.Background()

	if _, _, err := svc.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err=%v", err)
	}
	if _, err := svc.Update(ctx, 999, ProductInput{Name: "x", Price: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update err=%v", err)
	}
	if err := svc.Delete(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err=%v", err)
	}
}

func TestService_MutationsRequireStore(t *testing.T) {
	store := NewMemStore(Product{ID: 1, Name: "Salt", Price: 20})
	store.SetAvailable(false)
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, ProductInput{Name: "x", Price: 1}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Create err=%v", err)
	}
	if _, err := svc.Update(ctx, 1, ProductInput{Name: "x", Price: 1}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Update err=%v", err)
	}
	if err := svc.Delete(ctx, 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Delete err=%v", err)
	}
}

func TestService_SeedStore(t *testing.T) {
	store := NewMemStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	n, err := svc.SeedStore(ctx, true)
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if n, _ := svc.SeedStore(ctx, true); n != 0 {
		t.Fatalf("second seed with onlyIfEmpty wrote %d", n)
	}
	if n, _ := svc.SeedStore(ctx, false); n != 3 {
		t.Fatalf("forced seed wrote %d", n)
	}
	if c, _ := store.Count(ctx); c != 3 {
		t.Fatalf("count=%d want=3", c)
	}
}

func TestParseProductInput(t *testing.T) {
	in, err := ParseProductInput(Record{"name": " Ajwain ", "price": "45.5", "category": "Whole"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if in.Name != "Ajwain" || in.Price != 45.5 || in.Category != "Whole" {
		t.Fatalf("in=%+v", in)
	}

	_, err = ParseProductInput(Record{"price": -1})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err=%v want ValidationError", err)
	}
	if ve.Fields["name"] == "" || ve.Fields["price"] == "" {
		t.Fatalf("fields=%v", ve.Fields)
	}
}

func TestService_ExpiredListingFallsThroughToStore(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store := NewMemStore(Product{ID: 1, Name: "Turmeric", Price: 50})
	svc, _ := newTestServiceAt(t, store, func() time.Time { return now })
	ctx := context.Background()

	if got, src, err := svc.List(ctx, Filter{}); err != nil || src != SourceStore || len(got) != 1 {
		t.Fatalf("first read got=%+v src=%s err=%v", got, src, err)
	}

	// Written behind the service's back, so nothing invalidates the cache.
	if err := store.Insert(ctx, Product{ID: 2, Name: "Cumin", Price: 150}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	now = now.Add(time.Minute - time.Millisecond)
	got, src, err := svc.List(ctx, Filter{})
	if err != nil || src != SourceCache || len(got) != 1 {
		t.Fatalf("within ttl got=%+v src=%s err=%v", got, src, err)
	}

	now = now.Add(2 * time.Millisecond)
	got, src, err = svc.List(ctx, Filter{})
	if err != nil || src != SourceStore || len(got) != 2 {
		t.Fatalf("after ttl got=%+v src=%s err=%v", got, src, err)
	}

	// The refreshed listing is cached again.
	if _, src, _ := svc.List(ctx, Filter{}); src != SourceCache {
		t.Fatalf("source=%s want=%s", src, SourceCache)
	}
}
