package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojwks/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// unmatchedRoute agrupa los 404 de rutas inexistentes en un solo label.
const unmatchedRoute = "unmatched"

// WithMetrics instrumenta requests con contadores, latencia e inflight.
// Con m nil no hace nada.
func WithMetrics(m *metrics.HTTP) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.Begin(strings.ToUpper(r.Method))
			rec := NewStatusRecorder(w)
			defer func() {
				route := unmatchedRoute
				if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				done(route, rec.Status())
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
