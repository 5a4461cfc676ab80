package storefront

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"SpiceKart/pkg/kit"
)

const readyTimeout = 2 * time.Second

type health struct {
	deps Deps
	log  *zap.Logger
}

// status always answers 200: the storefront keeps serving from the fallback
// dataset while the store is down, and db says which one is in use.
func (h *health) status(w http.ResponseWriter, _ *http.Request) {
	db := "disconnected"
	if h.deps.StoreUp != nil && h.deps.StoreUp() {
		db = "connected"
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"db":            db,
		"uptimeSeconds": int64(time.Since(h.deps.Started).Seconds()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *health) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.deps.Catalog.Store().Ping(ctx); err != nil {
		h.log.Warn("readyz failed: product store", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "product store not ready", nil)
		return
	}
	if err := h.deps.Orders.Ping(ctx); err != nil {
		h.log.Warn("readyz failed: order store", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "order store not ready", nil)
		return
	}

	w.WriteHeader(http.StatusOK)
}
