package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"SpiceKart/internal/admin"
	"SpiceKart/internal/catalog"
	"SpiceKart/internal/config"
	"SpiceKart/internal/database"
	"SpiceKart/internal/storefront"
	"SpiceKart/pkg/kit"
)

const service = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := kit.NewLogger(service, cfg.Log.Options(cfg.Server.Mode))
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	catalogMetrics := catalog.NewMetrics(reg)
	ids := catalog.NewClockIDs(nil)

	stores, err := storefront.OpenStores(ctx, cfg.Store, ids, log)
	if err != nil {
		log.Fatal("open stores", zap.Error(err))
	}
	catalogMetrics.SetStoreUp(stores.Up())
	stores.OnChange(func(up bool) {
		catalogMetrics.SetStoreUp(up)
		if up {
			log.Info("product store reachable again", zap.String("driver", cfg.Store.Driver))
		} else {
			log.Warn("product store unreachable, reads fall back to seed data", zap.String("driver", cfg.Store.Driver))
		}
	})

	svc := catalog.NewService(catalog.Deps{
		Store:   stores.Products,
		Cache:   catalog.NewCache(cfg.Catalog.CacheTTL, nil),
		Seed:    catalog.NewFileSeedLoader(cfg.Catalog.SeedFile, ids, log),
		IDs:     ids,
		Log:     log,
		Metrics: catalogMetrics,
	})

	if cfg.Catalog.SeedIfEmpty && stores.Up() {
		n, err := svc.SeedStore(ctx, true)
		switch {
		case err != nil:
			log.Warn("seed store", zap.Error(err))
		case n > 0:
			log.Info("seeded empty product store", zap.Int("products", n))
		}
	}

	cleanup := []func(context.Context) error{stores.Close}

	var sessions admin.SessionStore = admin.NewMemSessions(nil)
	if cfg.Redis.Enabled {
		rdb, err := database.OpenRedis(ctx, database.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, cfg.Store.Timeout, log)
		if err != nil {
			log.Fatal("open redis", zap.Error(err))
		}
		sessions = admin.NewRedisSessions(rdb)
		cleanup = append(cleanup, rdb.Close)
	}

	password := admin.NewPassword(cfg.Admin.PassHash, cfg.Admin.Pass)
	if !password.Configured() {
		log.Warn("no admin password configured; admin login is disabled")
	}

	adminSrv := &admin.Server{
		Log:      log,
		Password: password,
		Tokens:   admin.NewTokenMaker(cfg.Session.Secret),
		Sessions: sessions,
		Uploads: &admin.Uploader{
			Dir:       cfg.Upload.Dir,
			URLPrefix: cfg.Upload.URLPrefix,
			MaxBytes:  cfg.Upload.MaxBytes,
			Log:       log,
		},
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure || cfg.Server.Release(),
		TTL:        cfg.Session.TTL,
	}

	h := storefront.NewHandler(storefront.Deps{
		Catalog:         svc,
		Orders:          stores.Orders,
		Admin:           adminSrv,
		LoginLimiter:    kit.NewIPRateLimiter(cfg.Admin.LoginLimit, cfg.Admin.LoginWindow),
		StoreUp:         stores.Up,
		UploadDir:       cfg.Upload.Dir,
		UploadURLPrefix: cfg.Upload.URLPrefix,
		PublicDir:       cfg.Web.PublicDir,
	}, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
		TrustProxy:     cfg.Server.TrustProxy,
	})

	if err := kit.RunHTTPServer(":"+cfg.Server.Port, h, log, cleanup...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
