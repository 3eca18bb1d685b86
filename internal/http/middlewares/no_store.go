package middlewares

import "net/http"

// WithNoStore agrega Cache-Control: no-store a la respuesta.
// Lo usan JWKS y las rutas que devuelven material privado.
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}
