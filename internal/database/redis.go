package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis wraps a client with a key namespace.
type Redis struct {
	Client *redis.Client
	Prefix string
}

// OpenRedis fails when the server cannot be reached: sessions have no
// fallback, so starting without them would lock every admin out silently.
func OpenRedis(ctx context.Context, opts RedisOptions, timeout time.Duration, log *zap.Logger) (*Redis, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "spicekart"
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: timeout,
		ReadTimeout: timeout,
	})

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info("redis connected", zap.String("addr", addr), zap.Int("db", opts.DB))

	return &Redis{Client: client, Prefix: prefix}, nil
}

func (r *Redis) Key(parts ...string) string {
	return r.Prefix + ":" + strings.Join(parts, ":")
}

func (r *Redis) Close(context.Context) error {
	return r.Client.Close()
}
