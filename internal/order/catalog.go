package order

import (
	"context"

	"SpiceKart/internal/catalog"
)

// ProductLookup resolves order lines against the catalog. *catalog.Service
// satisfies it, so placement sees the same cache, store and fallback data
// as product pages.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (catalog.Product, catalog.Source, error)
}
