package storefront

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"SpiceKart/internal/catalog"
	"SpiceKart/internal/config"
	"SpiceKart/internal/database"
	"SpiceKart/internal/order"
)

// Stores is the product and order persistence picked by store.driver. Both
// share one connection and one health tracker.
type Stores struct {
	Products catalog.Store
	Orders   order.Store

	health *database.Health
	close  func(context.Context) error
}

func OpenStores(ctx context.Context, cfg config.StoreConfig, ids catalog.IDAllocator, log *zap.Logger) (*Stores, error) {
	switch cfg.Driver {
	case "memory":
		log.Info("using in-memory stores")
		return &Stores{
			Products: catalog.NewMemStore(),
			Orders:   order.NewMemStore(),
			close:    func(context.Context) error { return nil },
		}, nil

	case "mongo":
		conn, err := database.ConnectMongo(ctx, cfg.URI, cfg.Database, cfg.Timeout, cfg.RetryAfter, log)
		if err != nil {
			return nil, err
		}
		products := catalog.NewMongoStore(conn, ids, cfg.QueryTimeout)
		orders := order.NewMongoStore(conn, cfg.QueryTimeout)

		if conn.Health.Up() {
			if err := products.EnsureIndexes(ctx); err != nil {
				log.Warn("ensure product indexes", zap.Error(err))
			}
			if err := orders.EnsureIndexes(ctx); err != nil {
				log.Warn("ensure order indexes", zap.Error(err))
			}
		}
		// TODO: create indexes once the server first becomes reachable when it was down at startup.
		return &Stores{Products: products, Orders: orders, health: conn.Health, close: conn.Close}, nil

	case "sqlite", "postgres":
		conn, err := database.OpenSQL(ctx, cfg.Driver, cfg.DSN, cfg.Timeout, cfg.RetryAfter, log)
		if err != nil {
			return nil, err
		}
		products := catalog.NewSQLStore(conn, ids, cfg.QueryTimeout)
		orders := order.NewSQLStore(conn, cfg.QueryTimeout)

		// Tables must exist before the first query, so a database that is
		// down at startup is fatal here, unlike mongo.
		if err := products.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate products: %w", err)
		}
		if err := orders.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate orders: %w", err)
		}
		return &Stores{Products: products, Orders: orders, health: conn.Health, close: conn.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}

// Up reports the last known state without probing.
func (s *Stores) Up() bool {
	if s.health == nil {
		return s.Products.Available()
	}
	return s.health.Up()
}

// OnChange is called on every up/down transition of a networked store.
func (s *Stores) OnChange(fn func(up bool)) {
	if s.health != nil {
		s.health.OnChange(fn)
	}
}

func (s *Stores) Close(ctx context.Context) error {
	return s.close(ctx)
}
