package catalog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SpiceKart/pkg/kit"
)

func allowAll(next http.Handler) http.Handler { return next }

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
	})
}

func newTestRoutes(t *testing.T, store *MemStore, requireAdmin func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	svc, _ := newTestService(t, store)
	return (&Server{Service: svc}).Routes(requireAdmin)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_ListFallbackWithPriceRange(t *testing.T) {
	store := NewMemStore()
	store.SetAvailable(false)
	h := newTestRoutes(t, store, allowAll)

	rec := do(t, h, http.MethodGet, "/?min=100&max=200", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(sourceHeader); got != string(SourceFallback) {
		t.Fatalf("source=%q", got)
	}

	var products []Product
	if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 1 || products[0].Price != 150 {
		t.Fatalf("products=%+v", products)
	}
}

func TestHTTP_CreateThenList(t *testing.T) {
	h := newTestRoutes(t, NewMemStore(), allowAll)

	if rec := do(t, h, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Fatalf("warm status=%d", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/", map[string]any{"name": "Hing", "price": "75"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created Product
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Name != "Hing" || created.Price != 75 || created.ID <= 0 {
		t.Fatalf("created=%+v", created)
	}

	rec = do(t, h, http.MethodGet, "/", nil)
	var products []Product
	_ = json.Unmarshal(rec.Body.Bytes(), &products)
	if len(products) != 1 || products[0].ID != created.ID {
		t.Fatalf("listing=%+v", products)
	}
}

func TestHTTP_Errors(t *testing.T) {
	h := newTestRoutes(t, NewMemStore(Product{ID: 1, Name: "Salt", Price: 20}), allowAll)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown id", http.MethodGet, "/999", nil, http.StatusNotFound},
		{"non-numeric id", http.MethodGet, "/abc", nil, http.StatusNotFound},
		{"zero id", http.MethodGet, "/0", nil, http.StatusNotFound},
		{"negative id", http.MethodGet, "/-4", nil, http.StatusNotFound},
		{"non-numeric update", http.MethodPut, "/abc", map[string]any{"name": "x", "price": 1}, http.StatusNotFound},
		{"non-numeric delete", http.MethodDelete, "/abc", nil, http.StatusNotFound},
		{"missing name", http.MethodPost, "/", map[string]any{"price": 10}, http.StatusBadRequest},
		{"non-positive price", http.MethodPost, "/", map[string]any{"name": "x", "price": 0}, http.StatusBadRequest},
		{"update unknown", http.MethodPut, "/999", map[string]any{"name": "x", "price": 1}, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/999", nil, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status=%d want=%d body=%s", rec.Code, tc.want, rec.Body.String())
			}
			var er kit.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Error == "" {
				t.Fatalf("error body=%s", rec.Body.String())
			}
		})
	}
}

func TestHTTP_BadJSON(t *testing.T) {
	h := newTestRoutes(t, NewMemStore(), allowAll)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHTTP_MutationWhileStoreDown(t *testing.T) {
	store := NewMemStore()
	store.SetAvailable(false)
	h := newTestRoutes(t, store, allowAll)

	rec := do(t, h, http.MethodPost, "/", map[string]any{"name": "x", "price": 5})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHTTP_UpdateAndDelete(t *testing.T) {
	h := newTestRoutes(t, NewMemStore(Product{ID: 1, Name: "Salt", Price: 20}), allowAll)

	rec := do(t, h, http.MethodPut, "/1", map[string]any{"name": "Sea Salt", "price": 30})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Success bool    `json:"success"`
		Product Product `json:"product"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if !out.Success || out.Product.Name != "Sea Salt" {
		t.Fatalf("update body=%s", rec.Body.String())
	}

	if rec := do(t, h, http.MethodDelete, "/1", nil); rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rec.Code)
	}
}

func TestHTTP_MutationsRequireAdmin(t *testing.T) {
	h := newTestRoutes(t, NewMemStore(Product{ID: 1, Name: "Salt", Price: 20}), denyAll)

	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		path := "/1"
		if m == http.MethodPost {
			path = "/"
		}
		if rec := do(t, h, m, path, map[string]any{"name": "x", "price": 1}); rec.Code != http.StatusForbidden {
			t.Fatalf("%s status=%d", m, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/1", nil); rec.Code != http.StatusOK {
		t.Fatalf("public read status=%d", rec.Code)
	}
}
