package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Service serves product reads through cache, store and fallback dataset,
// and applies admin mutations to the store.
type Service struct {
	store   Store
	cache   *Cache
	seed    *SeedLoader
	ids     IDAllocator
	log     *zap.Logger
	metrics *Metrics
}

type Deps struct {
	Store   Store
	Cache   *Cache
	Seed    *SeedLoader
	IDs     IDAllocator
	Log     *zap.Logger
	Metrics *Metrics
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = NewCache(DefaultCacheTTL, nil)
	}
	if d.IDs == nil {
		d.IDs = NewClockIDs(nil)
	}
	return &Service{
		store:   d.Store,
		cache:   d.Cache,
		seed:    d.Seed,
		ids:     d.IDs,
		log:     d.Log,
		metrics: d.Metrics,
	}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) List(ctx context.Context, f Filter) ([]Product, Source, error) {
	unfiltered := f.Empty()

	if unfiltered {
		if products, ok := s.cache.Listing(); ok {
			s.metrics.read("list", SourceCache)
			return products, SourceCache, nil
		}
	}

	gen := s.cache.Generation()

	if s.store.Available() {
		products, err := s.store.Find(ctx, f)
		if err == nil {
			if unfiltered {
				s.cache.StoreListing(gen, products)
			}
			s.metrics.read("list", SourceStore)
			return products, SourceStore, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			s.log.Error("list products failed", zap.Error(err))
			return nil, "", fmt.Errorf("%w: %v", ErrRead, err)
		}
		s.log.Warn("product store unreachable, serving fallback dataset", zap.Error(err))
	}

	products := Apply(s.fallback(), f)
	if unfiltered {
		s.cache.StoreListing(gen, products)
	}
	s.metrics.read("list", SourceFallback)
	return products, SourceFallback, nil
}

// Get looks a product up by id. Like List it falls back to the seed dataset
// when the store is unreachable; fallback hits are not cached by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, Source, error) {
	if p, ok := s.cache.Get(id); ok {
		s.metrics.read("get", SourceCache)
		return p, SourceCache, nil
	}

	gen := s.cache.Generation()

	if s.store.Available() {
		p, found, err := s.store.FindOne(ctx, id)
		switch {
		case err == nil && found:
			s.cache.Put(gen, p)
			s.metrics.read("get", SourceStore)
			return p, SourceStore, nil
		case err == nil:
			return Product{}, SourceStore, ErrNotFound
		case !errors.Is(err, ErrUnavailable):
			s.log.Error("get product failed", zap.Error(err), zap.Int64("id", id))
			return Product{}, "", fmt.Errorf("%w: %v", ErrRead, err)
		}
		s.log.Warn("product store unreachable, serving fallback dataset", zap.Error(err), zap.Int64("id", id))
	}

	for _, p := range s.fallback() {
		if p.ID == id {
			s.metrics.read("get", SourceFallback)
			return p, SourceFallback, nil
		}
	}
	return Product{}, SourceFallback, ErrNotFound
}

func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	if !s.store.Available() {
		return Product{}, ErrUnavailable
	}

	p := in.product(s.ids.NextID())
	if err := s.store.Insert(ctx, p); err != nil {
		return Product{}, s.writeErr("create", p.ID, err)
	}

	s.invalidate()
	s.log.Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Update replaces every mutable field of product id.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (Product, error) {
	if !s.store.Available() {
		return Product{}, ErrUnavailable
	}

	p := in.product(id)
	found, err := s.store.Update(ctx, p)
	if err != nil {
		return Product{}, s.writeErr("update", id, err)
	}
	if !found {
		return Product{}, ErrNotFound
	}

	s.invalidate()
	s.log.Info("product updated", zap.Int64("id", id))
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if !s.store.Available() {
		return ErrUnavailable
	}

	found, err := s.store.Delete(ctx, id)
	if err != nil {
		return s.writeErr("delete", id, err)
	}
	if !found {
		return ErrNotFound
	}

	s.invalidate()
	s.log.Info("product deleted", zap.Int64("id", id))
	return nil
}

// SeedStore upserts the seed dataset into the store. With onlyIfEmpty it does
// nothing when the store already holds products.
func (s *Service) SeedStore(ctx context.Context, onlyIfEmpty bool) (int, error) {
	if onlyIfEmpty {
		n, err := s.store.Count(ctx)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return 0, nil
		}
	}

	products := s.fallback()
	if err := s.store.Upsert(ctx, products); err != nil {
		return 0, err
	}
	s.invalidate()
	return len(products), nil
}

func (s *Service) fallback() []Product {
	if s.seed == nil {
		return nil
	}
	return s.seed.Products()
}

func (s *Service) invalidate() {
	s.cache.InvalidateAll()
	s.metrics.invalidated()
}

func (s *Service) writeErr(op string, id int64, err error) error {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrDuplicateID) {
		return err
	}
	s.log.Error("product "+op+" failed", zap.Error(err), zap.Int64("id", id))
	return fmt.Errorf("%w: %v", ErrWrite, err)
}

// ProductInput is a validated admin payload.
type ProductInput struct {
	Name        string
	Price       float64
	Category    string
	Description string
	Image       string
}

func (in ProductInput) product(id int64) Product {
	return Product{
		ID:          id,
		Name:        in.Name,
		Price:       in.Price,
		Category:    in.Category,
		Description: in.Description,
		Image:       in.Image,
	}
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid product: " + strings.Join(parts, ", ")
}

// ParseProductInput validates a raw admin payload. Name and a positive
// price are required; price may arrive as a number or numeric string.
func ParseProductInput(raw Record) (ProductInput, error) {
	fields := map[string]string{}

	in := ProductInput{
		Name:        coerceString(raw["name"]),
		Category:    coerceString(raw["category"]),
		Description: coerceString(raw["description"]),
		Image:       coerceString(raw["image"]),
	}
	if in.Name == "" {
		fields["name"] = "required"
	}

	price, ok := coerceNumber(raw["price"])
	switch {
	case !ok:
		fields["price"] = "required number"
	case price <= 0:
		fields["price"] = "must be positive"
	default:
		in.Price = price
	}

	if len(fields) > 0 {
		return ProductInput{}, &ValidationError{Fields: fields}
	}
	return in, nil
}
