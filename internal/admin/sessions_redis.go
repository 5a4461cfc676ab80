package admin

import (
	"context"
	"time"

	"SpiceKart/internal/database"
)

// RedisSessions shares sessions between storefront replicas. Expiry is left
// to redis key TTLs.
type RedisSessions struct {
	r *database.Redis
}

func NewRedisSessions(r *database.Redis) *RedisSessions {
	return &RedisSessions{r: r}
}

func (s *RedisSessions) key(id string) string {
	return s.r.Key("admin", "session", id)
}

func (s *RedisSessions) Register(ctx context.Context, id string, ttl time.Duration) error {
	return s.r.Client.Set(ctx, s.key(id), time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (s *RedisSessions) Active(ctx context.Context, id string) (bool, error) {
	n, err := s.r.Client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *RedisSessions) Revoke(ctx context.Context, id string) error {
	return s.r.Client.Del(ctx, s.key(id)).Err()
}
