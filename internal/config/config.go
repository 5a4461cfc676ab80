package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"SpiceKart/pkg/kit"
)

const (
	DefaultSessionSecret = "spice-secret"

	envPrefix = "SPICEKART"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Web     WebConfig     `mapstructure:"web"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release

	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// StoreConfig selects the primary product/order store.
// Driver is one of memory, mongo, sqlite, postgres.
type StoreConfig struct {
	Driver       string        `mapstructure:"driver"`
	URI          string        `mapstructure:"uri"`
	Database     string        `mapstructure:"database"`
	DSN          string        `mapstructure:"dsn"`
	Timeout      time.Duration `mapstructure:"timeout"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	RetryAfter   time.Duration `mapstructure:"retry_after"`
}

type CatalogConfig struct {
	SeedFile    string        `mapstructure:"seed_file"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	SeedIfEmpty bool          `mapstructure:"seed_if_empty"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type AdminConfig struct {
	PassHash    string        `mapstructure:"pass_hash"`
	Pass        string        `mapstructure:"pass"`
	LoginLimit  int           `mapstructure:"login_limit"`
	LoginWindow time.Duration `mapstructure:"login_window"`
}

type UploadConfig struct {
	Dir       string `mapstructure:"dir"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
	URLPrefix string `mapstructure:"url_prefix"`
}

type WebConfig struct {
	PublicDir string `mapstructure:"public_dir"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

func (c LogConfig) Options(mode string) kit.LogOptions {
	return kit.LogOptions{
		Mode:       mode,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

func (c ServerConfig) Release() bool {
	m := strings.ToLower(strings.TrimSpace(c.Mode))
	return m == "release" || m == "production"
}

// Load reads .env, then config.yml (optional), then the environment.
// Later sources win.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./etc", "../"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "storefront.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "spicekart")
	v.SetDefault("store.dsn", "data/spicekart.db")
	v.SetDefault("store.timeout", 5*time.Second)
	v.SetDefault("store.query_timeout", 3*time.Second)
	v.SetDefault("store.retry_after", 10*time.Second)

	v.SetDefault("catalog.seed_file", "data/products.json")
	v.SetDefault("catalog.cache_ttl", 60*time.Second)
	v.SetDefault("catalog.seed_if_empty", true)

	v.SetDefault("session.secret", DefaultSessionSecret)
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.cookie_name", "spicekart_session")
	v.SetDefault("session.secure", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "spicekart")

	v.SetDefault("admin.pass_hash", "")
	v.SetDefault("admin.pass", "")
	v.SetDefault("admin.login_limit", 5)
	v.SetDefault("admin.login_window", 15*time.Minute)

	v.SetDefault("upload.dir", "public/assets")
	v.SetDefault("upload.max_bytes", 2<<20)
	v.SetDefault("upload.url_prefix", "/assets/")

	v.SetDefault("web.public_dir", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.token", "")
}

// bindLegacyEnv keeps the variable names existing deployments already set.
func bindLegacyEnv(v *viper.Viper) error {
	binds := [][]string{
		{"server.port", envPrefix + "_SERVER_PORT", "PORT"},
		{"server.mode", envPrefix + "_SERVER_MODE", "APP_ENV", "NODE_ENV"},
		{"server.trust_proxy", envPrefix + "_SERVER_TRUST_PROXY", "TRUST_PROXY"},
		{"store.uri", envPrefix + "_STORE_URI", "MONGO_URI"},
		{"store.database", envPrefix + "_STORE_DATABASE", "MONGODB_DB_NAME"},
		{"session.secret", envPrefix + "_SESSION_SECRET", "SESSION_SECRET"},
		{"admin.pass_hash", envPrefix + "_ADMIN_PASS_HASH", "ADMIN_PASS_HASH"},
		{"admin.pass", envPrefix + "_ADMIN_PASS", "ADMIN_PASS"},
		{"redis.addr", envPrefix + "_REDIS_ADDR", "REDIS_ADDR"},
		{"metrics.token", envPrefix + "_METRICS_TOKEN", "METRICS_TOKEN"},
	}
	for _, b := range binds {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("bind env %s: %w", b[0], err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "memory", "sqlite", "postgres":
	case "mongo", "mongodb":
		c.Store.Driver = "mongo"
		if strings.TrimSpace(c.Store.URI) == "" {
			return errors.New("store.uri (MONGO_URI) is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unsupported store driver: %q", c.Store.Driver)
	}

	if c.Server.Release() && c.Session.Secret == DefaultSessionSecret {
		return errors.New("SESSION_SECRET is required in production and must not use the default value")
	}
	if c.Catalog.CacheTTL <= 0 {
		return errors.New("catalog.cache_ttl must be positive")
	}
	if c.Admin.LoginLimit <= 0 || c.Admin.LoginWindow <= 0 {
		return errors.New("admin.login_limit and admin.login_window must be positive")
	}
	return nil
}
