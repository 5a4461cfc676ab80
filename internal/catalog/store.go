package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable marks failures to reach the store at all. Reads fall
	// back to the seed dataset; writes surface it.
	ErrUnavailable = errors.New("product store unavailable")
	ErrNotFound    = errors.New("product not found")
	ErrDuplicateID = errors.New("product id already exists")
	ErrRead        = errors.New("product read failed")
	ErrWrite       = errors.New("product write failed")
)

// Store is the primary product datastore. Every Product it returns has been
// through Normalize.
type Store interface {
	// Available reports the last known connectivity state without I/O.
	Available() bool
	Ping(ctx context.Context) error

	Find(ctx context.Context, f Filter) ([]Product, error)
	FindOne(ctx context.Context, id int64) (Product, bool, error)
	Insert(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Upsert(ctx context.Context, products []Product) error
	Count(ctx context.Context) (int64, error)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
