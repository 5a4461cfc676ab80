package order

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnavailable = errors.New("order store unavailable")
	ErrDuplicateID = errors.New("order id already exists")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, bool, error)
	// List returns up to limit orders, newest first.
	List(ctx context.Context, limit int) ([]Order, error)
	Ping(ctx context.Context) error
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
