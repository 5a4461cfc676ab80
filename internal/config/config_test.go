package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearModeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NODE_ENV", "")
	t.Setenv("APP_ENV", "")
}

func TestLoad_DefaultsAndLegacyEnv(t *testing.T) {
	clearModeEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_URI", "mongodb://example:27017")
	t.Setenv("SPICEKART_STORE_DRIVER", "mongodb")
	t.Setenv("ADMIN_PASS", "letmein")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Fatalf("port=%q", cfg.Server.Port)
	}
	if cfg.Store.Driver != "mongo" || cfg.Store.URI != "mongodb://example:27017" {
		t.Fatalf("store=%+v", cfg.Store)
	}
	if cfg.Store.Database != "spicekart" {
		t.Fatalf("database=%q", cfg.Store.Database)
	}
	if cfg.Catalog.CacheTTL != 60*time.Second {
		t.Fatalf("cache ttl=%s", cfg.Catalog.CacheTTL)
	}
	if cfg.Server.TrustProxy {
		t.Fatalf("trust_proxy must default to false")
	}
	if cfg.Admin.Pass != "letmein" || cfg.Admin.LoginLimit != 5 || cfg.Admin.LoginWindow != 15*time.Minute {
		t.Fatalf("admin=%+v", cfg.Admin)
	}
}

func TestLoad_TrustProxyEnv(t *testing.T) {
	clearModeEnv(t)
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Server.TrustProxy {
		t.Fatalf("trust_proxy=false want=true")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearModeEnv(t)
	dir := t.TempDir()
	yml := "store:\n  driver: sqlite\n  dsn: file::memory:\ncatalog:\n  cache_ttl: 30s\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "file::memory:" {
		t.Fatalf("store=%+v", cfg.Store)
	}
	if cfg.Catalog.CacheTTL != 30*time.Second {
		t.Fatalf("cache ttl=%s", cfg.Catalog.CacheTTL)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "cassandra" }, wantErr: true},
		{name: "mongo without uri", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: true},
		{name: "release with default secret", mutate: func(c *Config) { c.Server.Mode = "production" }, wantErr: true},
		{name: "release with secret", mutate: func(c *Config) {
			c.Server.Mode = "release"
			c.Session.Secret = "a-real-secret-value"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{
				Store:   StoreConfig{Driver: "memory"},
				Catalog: CatalogConfig{CacheTTL: time.Minute},
				Session: SessionConfig{Secret: DefaultSessionSecret},
				Admin:   AdminConfig{LoginLimit: 5, LoginWindow: time.Minute},
			}
			tc.mutate(c)
			err := c.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
		})
	}
}
