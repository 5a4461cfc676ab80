package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"SpiceKart/pkg/kit"
)

const sourceHeader = "X-Data-Source"

type Server struct {
	Service *Service
	Log     *zap.Logger
}

// Routes mounts under /api/products. Mutations go through requireAdmin.
func (s *Server) Routes(requireAdmin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/{id}", s.get)

	r.Group(func(ar chi.Router) {
		ar.Use(requireAdmin)
		ar.Post("/", s.create)
		ar.Put("/{id}", s.update)
		ar.Delete("/{id}", s.delete)
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, src, err := s.Service.List(r.Context(), ParseFilter(r.URL.Query()))
	if err != nil {
		kit.WriteError(w, r, http.StatusInternalServerError, "could not read products", nil)
		return
	}
	w.Header().Set(sourceHeader, string(src))
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, src, err := s.Service.Get(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
	case err != nil:
		kit.WriteError(w, r, http.StatusInternalServerError, "could not read product", nil)
	default:
		w.Header().Set(sourceHeader, string(src))
		kit.WriteJSON(w, http.StatusOK, p)
	}
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	p, err := s.Service.Create(r.Context(), in)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	p, err := s.Service.Update(r.Context(), id, in)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := s.Service.Delete(r.Context(), id); err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	var raw Record
	if err := kit.DecodeJSON(w, r, &raw); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return ProductInput{}, false
	}

	in, err := ParseProductInput(raw)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			kit.WriteError(w, r, http.StatusBadRequest, "name and price are required", ve.Fields)
			return ProductInput{}, false
		}
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return ProductInput{}, false
	}
	return in, true
}

func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case errors.Is(err, ErrDuplicateID):
		kit.WriteError(w, r, http.StatusConflict, "product id already exists", nil)
	case errors.Is(err, ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "product store unavailable", nil)
	default:
		if s.Log != nil {
			s.Log.Error("product mutation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "could not save product", nil)
	}
}

// productID parses the {id} segment. Anything that is not a positive integer
// cannot name a product, so it answers 404 like any other unknown id.
func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
