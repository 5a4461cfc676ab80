package admin

import (
	"context"
	"time"
)

// SessionStore registers issued session ids so logout can revoke a token
// that has not expired yet.
type SessionStore interface {
	Register(ctx context.Context, id string, ttl time.Duration) error
	Active(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}
