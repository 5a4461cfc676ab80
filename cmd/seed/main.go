package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"SpiceKart/internal/catalog"
	"SpiceKart/internal/config"
	"SpiceKart/internal/storefront"
	"SpiceKart/pkg/kit"
)

// seed upserts the seed file into the configured product store.
func main() {
	onlyIfEmpty := flag.Bool("if-empty", false, "skip when the store already has products")
	file := flag.String("file", "", "seed file (defaults to catalog.seed_file)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := kit.NewLogger("seed", cfg.Log.Options(cfg.Server.Mode))
	defer func() { _ = log.Sync() }()

	if cfg.Store.Driver == "memory" {
		log.Fatal("store.driver is memory; nothing to seed")
	}
	path := cfg.Catalog.SeedFile
	if *file != "" {
		path = *file
	}

	ctx := context.Background()
	ids := catalog.NewClockIDs(nil)

	stores, err := storefront.OpenStores(ctx, cfg.Store, ids, log)
	if err != nil {
		log.Fatal("open stores", zap.Error(err))
	}
	defer func() { _ = stores.Close(context.Background()) }()

	if err := stores.Products.Ping(ctx); err != nil {
		log.Fatal("product store unreachable", zap.Error(err))
	}

	svc := catalog.NewService(catalog.Deps{
		Store: stores.Products,
		Seed:  catalog.NewFileSeedLoader(path, ids, log),
		IDs:   ids,
		Log:   log,
	})

	n, err := svc.SeedStore(ctx, *onlyIfEmpty)
	if err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("seed complete", zap.String("file", path), zap.Int("products", n))
}
