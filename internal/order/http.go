package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"SpiceKart/internal/catalog"
	"SpiceKart/pkg/kit"
)

const (
	MaxItems = 100
	MaxQty   = 100
)

type Server struct {
	Store   Store
	Catalog ProductLookup
	Log     *zap.Logger
	Now     func() time.Time
}

// Routes mounts under /api/orders. Placing an order is public; reading
// orders back goes through requireAdmin.
func (s *Server) Routes(requireAdmin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", s.create)

	r.Group(func(ar chi.Router) {
		ar.Use(requireAdmin)
		ar.Get("/", s.list)
		ar.Get("/{id}", s.get)
	})
	return r
}

type createReq struct {
	Customer *Customer `json:"customer"`
	Items    []itemReq `json:"items"`
}

// itemReq tolerates the extra fields a browser cart carries along.
type itemReq struct {
	ID  json.Number `json:"id"`
	Qty int         `json:"qty"`
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.Customer == nil || len(req.Items) == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "Invalid order payload", nil)
		return
	}
	if len(req.Items) > MaxItems {
		kit.WriteError(w, r, http.StatusBadRequest, "too many items", map[string]any{"max": MaxItems})
		return
	}

	customer, missing := req.Customer.Sanitize()
	if missing != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "customer details incomplete", missing)
		return
	}

	items, total, err := s.priceItems(r.Context(), req.Items)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}

	o := Order{
		ID:        "o_" + uuid.NewString(),
		Customer:  customer,
		Items:     items,
		Total:     NewMoney(total),
		CreatedAt: s.now().UTC(),
	}

	if err := s.Store.Create(r.Context(), o); err != nil {
		s.writeStoreError(w, r, "create", err)
		return
	}

	if s.Log != nil {
		s.Log.Info("order placed",
			zap.String("order_id", o.ID),
			zap.Int("items", len(o.Items)),
			zap.String("total", o.Total.String()))
	}
	kit.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"orderId": o.ID,
		"order":   o,
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			kit.WriteError(w, r, http.StatusBadRequest, "invalid limit", map[string]any{"limit": raw})
			return
		}
		limit = n
	}

	orders, err := s.Store.List(r.Context(), limit)
	if err != nil {
		s.writeStoreError(w, r, "list", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, orders)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, o)
}

var (
	errBadItem         = errors.New("bad item")
	errDuplicateItem   = errors.New("duplicate product id")
	errInvalidProduct  = errors.New("invalid product id")
	errCatalogUpstream = errors.New("catalog error")
)

// priceItems resolves every line against the catalog and snapshots name and
// unit price. The total is summed in decimal and rounded to two places.
func (s *Server) priceItems(ctx context.Context, reqs []itemReq) (Items, decimal.Decimal, error) {
	seen := make(map[int64]struct{}, len(reqs))
	items := make(Items, 0, len(reqs))
	total := decimal.Zero

	for _, it := range reqs {
		pid, err := strconv.ParseInt(strings.TrimSpace(it.ID.String()), 10, 64)
		if err != nil || pid <= 0 || it.Qty < 1 || it.Qty > MaxQty {
			return nil, decimal.Zero, errBadItem
		}
		if _, dup := seen[pid]; dup {
			return nil, decimal.Zero, errDuplicateItem
		}
		seen[pid] = struct{}{}

		p, _, err := s.Catalog.Get(ctx, pid)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, decimal.Zero, errInvalidProduct
			}
			if s.Log != nil {
				s.Log.Warn("catalog lookup failed", zap.Error(err), zap.Int64("product_id", pid))
			}
			return nil, decimal.Zero, errCatalogUpstream
		}

		price := MoneyFromFloat(p.Price)
		items = append(items, Item{ProductID: p.ID, Qty: it.Qty, Name: p.Name, Price: price})
		total = total.Add(price.Decimal.Mul(decimal.NewFromInt(int64(it.Qty))))
	}

	return items, total.Round(2), nil
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case errBadItem:
		kit.WriteError(w, r, http.StatusBadRequest, "bad item", map[string]any{"qty_max": MaxQty})
	case errDuplicateItem:
		kit.WriteError(w, r, http.StatusBadRequest, "duplicate product id", nil)
	case errInvalidProduct:
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product id", nil)
	case errCatalogUpstream:
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if s.Log != nil {
		s.Log.Error("order store "+op+" failed", zap.Error(err))
	}
	switch {
	case errors.Is(err, ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "order store unavailable", nil)
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
