package middlewares

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/hellojwks/internal/http/errors"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/dropDatabas3/hellojwks/internal/rate"
)

// WithRateLimit limita por IP de cliente dentro de scope.
// Si el limiter falla se deja pasar el request (fail-open) y se loguea.
func WithRateLimit(l rate.Limiter, scope string) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), scope+":"+clientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable",
					logger.Op("WithRateLimit"),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				errors.WriteError(w, errors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
