package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"SpiceKart/internal/database"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	conn, err := database.OpenSQL(context.Background(), "sqlite", dsn, 2*time.Second, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	s := NewSQLStore(conn, NewSequenceIDs(1), 2*time.Second)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestSQLStore_CRUD(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if !s.Available() {
		t.Fatalf("sqlite store should be available after open")
	}

	p := Product{ID: 7, Name: "Star Anise", Price: 220, Category: "Whole"}
	if err := s.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, p); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate insert err=%v", err)
	}

	got, found, err := s.FindOne(ctx, 7)
	if err != nil || !found || got != p {
		t.Fatalf("FindOne got=%+v found=%v err=%v", got, found, err)
	}
	if _, found, err := s.FindOne(ctx, 8); err != nil || found {
		t.Fatalf("missing FindOne found=%v err=%v", found, err)
	}

	p.Price = 240
	if ok, err := s.Update(ctx, p); err != nil || !ok {
		t.Fatalf("Update ok=%v err=%v", ok, err)
	}
	if ok, err := s.Update(ctx, Product{ID: 99, Name: "x"}); err != nil || ok {
		t.Fatalf("Update missing ok=%v err=%v", ok, err)
	}

	if ok, err := s.Delete(ctx, 7); err != nil || !ok {
		t.Fatalf("Delete ok=%v err=%v", ok, err)
	}
	if n, err := s.Count(ctx); err != nil || n != 0 {
		t.Fatalf("Count n=%d err=%v", n, err)
	}
}

func TestSQLStore_UpsertReplaces(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, []Product{{ID: 1, Name: "Clove", Price: 10}, {ID: 2, Name: "Mace", Price: 20}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, []Product{{ID: 1, Name: "Clove", Price: 12}}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, _, _ := s.FindOne(ctx, 1)
	if got.Price != 12 {
		t.Fatalf("price=%v want=12", got.Price)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Fatalf("count=%d want=2", n)
	}
}

// The store-side query and the in-memory filter must select the same
// products in the same order.
func TestSQLStore_FindAgreesWithApply(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	rng := rand.New(rand.NewSource(7))
	names := []string{"Black Pepper", "pepper_corn", "Cumin 100%", "Masala", "Ginger", "Tea", "ÉLAICHI Pods", "Crème roast"}
	cats := []string{"Whole", "Ground", "Blend", ""}

	var products []Product
	for i := 1; i <= 60; i++ {
		products = append(products, Product{
			ID:          int64(i * 3),
			Name:        names[rng.Intn(len(names))],
			Description: names[rng.Intn(len(names))] + " blend",
			Category:    cats[rng.Intn(len(cats))],
			Price:       float64(rng.Intn(400)) + 0.5,
		})
	}
	if err := s.Upsert(ctx, products); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	filters := []Filter{
		{},
		{Query: "PEPPER"},
		{Query: "_"},
		{Query: "%"},
		{Query: "blend", Category: "Whole"},
		{Min: Float(100), Max: Float(200)},
		{Query: "masala", Min: Float(50)},
		{Category: "Ground", Max: Float(150.5)},
		{Min: Float(300), Max: Float(100)},
		{Query: "élaichi"},
		{Query: "CRÈME", Max: Float(250)},
	}

	for _, f := range filters {
		got, err := s.Find(ctx, f)
		if err != nil {
			t.Fatalf("Find(%+v): %v", f, err)
		}
		want := Apply(products, f)

		if len(got) != len(want) {
			t.Fatalf("filter=%+v len=%d want=%d", f, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("filter=%+v [%d] got=%+v want=%+v", f, i, got[i], want[i])
			}
		}
	}
}

func TestSQLStore_FindFoldsNonASCII(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	products := []Product{
		{ID: 1, Name: "ÉLAICHI Pods", Price: 320},
		{ID: 2, Name: "Jeera", Description: "Crème roast", Price: 150},
	}
	if err := s.Upsert(ctx, products); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	cases := []struct {
		q    string
		want int64
	}{
		{q: "élaichi", want: 1},
		{q: "crème", want: 2},
		{q: "CRÈME ROAST", want: 2},
	}
	for _, tc := range cases {
		got, err := s.Find(ctx, Filter{Query: tc.q})
		if err != nil {
			t.Fatalf("Find(%q): %v", tc.q, err)
		}
		fallback := Apply(products, Filter{Query: tc.q})
		if len(got) != 1 || got[0].ID != tc.want || len(fallback) != 1 || fallback[0].ID != tc.want {
			t.Fatalf("q=%q store=%+v fallback=%+v want id %d", tc.q, got, fallback, tc.want)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Fatalf("got=%q", got)
	}
}
