// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/http/helpers"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
)

// pingTimeout acota la verificación del store en /readyz.
const pingTimeout = 2 * time.Second

// Pinger verifica la conectividad del record store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response es el body de /readyz.
type Response struct {
	Status  string `json:"status"` // ready | unavailable
	Version string `json:"version,omitempty"`
	Store   string `json:"store"` // ok | error
}

// Controller maneja las rutas de health check.
type Controller struct {
	store   Pinger
	version string
}

// NewController crea un nuevo controller de health check.
func NewController(store Pinger, version string) *Controller {
	return &Controller{store: store, version: version}
}

// Readyz maneja GET /readyz
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	resp := Response{Status: "ready", Version: c.version, Store: "ok"}
	status := http.StatusOK

	if err := c.store.Ping(ctx); err != nil {
		logger.From(r.Context()).Warn("readiness check failed",
			logger.Layer("controller"),
			logger.Op("HealthController.Readyz"),
			logger.Err(err),
		)
		resp.Status = "unavailable"
		resp.Store = "error"
		status = http.StatusServiceUnavailable
	}

	if c.version != "" {
		w.Header().Set("X-Service-Version", c.version)
	}
	helpers.WriteJSON(w, status, resp)
}
