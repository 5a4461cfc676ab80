package storefront

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"SpiceKart/internal/admin"
	"SpiceKart/internal/catalog"
	"SpiceKart/internal/order"
	"SpiceKart/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// TrustProxy mounts RealIP so rate limiting and logs see the forwarded
	// client address.
	TrustProxy bool
}

type Deps struct {
	Catalog      *catalog.Service
	Orders       order.Store
	Admin        *admin.Server
	LoginLimiter *kit.IPRateLimiter

	// StoreUp reports the last known primary store state for /health.
	StoreUp func() bool

	UploadDir       string
	UploadURLPrefix string
	PublicDir       string

	Started time.Time
}

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}
	if deps.Started.IsZero() {
		deps.Started = time.Now()
	}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	h := &health{deps: deps, log: httpDeps.Log}
	r.Get("/health", h.status)
	r.Get("/healthz", healthz)
	r.Get("/readyz", h.ready)

	products := &catalog.Server{Service: deps.Catalog, Log: httpDeps.Log}
	r.Mount("/api/products", products.Routes(deps.Admin.RequireAdmin))

	orders := &order.Server{Store: deps.Orders, Catalog: deps.Catalog, Log: httpDeps.Log}
	r.Mount("/api/orders", orders.Routes(deps.Admin.RequireAdmin))

	loginLimit := func(next http.Handler) http.Handler { return next }
	if deps.LoginLimiter != nil {
		loginLimit = deps.LoginLimiter.Middleware
	}
	r.Mount("/admin", deps.Admin.Routes(loginLimit))

	setupStatic(r, deps)
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.BearerToken(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

// setupStatic serves uploaded images and, when configured, the storefront
// pages. Unknown paths under the public dir fall back to index.html so
// client-side routes survive a reload.
func setupStatic(r *chi.Mux, deps Deps) {
	if deps.UploadDir != "" {
		prefix := "/" + strings.Trim(deps.UploadURLPrefix, "/")
		if prefix == "/" {
			prefix = "/assets"
		}
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(deps.UploadDir))))
	}

	if deps.PublicDir == "" {
		return
	}
	files := http.FileServer(http.Dir(deps.PublicDir))
	index := filepath.Join(deps.PublicDir, "index.html")

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		clean := filepath.Clean("/" + req.URL.Path)
		fi, err := os.Stat(filepath.Join(deps.PublicDir, filepath.FromSlash(clean)))
		if clean == "/" || (err == nil && !fi.IsDir()) {
			files.ServeHTTP(w, req)
			return
		}
		http.ServeFile(w, req, index)
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
