// Package router arma el árbol de rutas chi del servicio.
package router

import (
	"net/http"

	docsctrl "github.com/dropDatabas3/hellojwks/internal/http/controllers/docs"
	healthctrl "github.com/dropDatabas3/hellojwks/internal/http/controllers/health"
	keysctrl "github.com/dropDatabas3/hellojwks/internal/http/controllers/keys"
	httperrors "github.com/dropDatabas3/hellojwks/internal/http/errors"
	mw "github.com/dropDatabas3/hellojwks/internal/http/middlewares"
	"github.com/dropDatabas3/hellojwks/internal/metrics"
	"github.com/dropDatabas3/hellojwks/internal/rate"
	"github.com/go-chi/chi/v5"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Keys    keysctrl.Service
	Health  healthctrl.Pinger
	Version string

	// CORSAllowedOrigins vacío desactiva CORS.
	CORSAllowedOrigins []string

	// GenerateLimiter limita POST /jwks por cliente. nil = sin límite.
	GenerateLimiter rate.Limiter

	// HTTPMetrics y MetricsHandler son opcionales: sin ellos no hay /metrics.
	HTTPMetrics    *metrics.HTTP
	MetricsHandler http.Handler
}

// New devuelve el handler raíz con todas las rutas registradas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	var cors mw.Middleware
	if len(deps.CORSAllowedOrigins) > 0 {
		cors = mw.WithCORS(deps.CORSAllowedOrigins)
	}
	r.Use(mw.Stack(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithMetrics(deps.HTTPMetrics),
		cors,
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("ruta inexistente"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// ===========================================================================
	// Infra: sin logging (muy frecuentes)
	// ===========================================================================
	if deps.Health != nil {
		health := healthctrl.NewController(deps.Health, deps.Version)
		r.Get("/readyz", health.Readyz)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// ===========================================================================
	// API
	// ===========================================================================
	r.Group(func(r chi.Router) {
		r.Use(mw.WithLogging())

		docs := docsctrl.NewController()
		r.Get("/api-docs/openapi.json", docs.OpenAPIJSON)

		if deps.Keys == nil {
			return
		}
		keys := keysctrl.NewController(deps.Keys)

		r.Group(func(r chi.Router) {
			r.Use(mw.WithNoStore())

			r.Get("/.well-known/jwks.json", keys.GetJWKS)
			r.Head("/.well-known/jwks.json", keys.GetJWKS)

			r.With(mw.WithRateLimit(deps.GenerateLimiter, "generate")).Post("/jwks", keys.Create)
			r.Get("/jwks/{id}", keys.Get)
			r.Delete("/jwks/{id}", keys.Delete)
		})
	})

	return r
}
