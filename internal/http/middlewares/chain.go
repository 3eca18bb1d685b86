// Package middlewares contiene los decoradores http.Handler comunes a todas las rutas.
package middlewares

import "net/http"

// Middleware es un decorador de http.Handler. Es asignable a lo que espera chi.Use.
type Middleware func(http.Handler) http.Handler

// Chain envuelve h: Chain(h, A, B, C) ejecuta A -> B -> C -> h.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Stack compone mws en un único Middleware con el mismo orden que Chain.
// Los nil se ignoran, así el router puede armar la pila con opcionales.
func Stack(mws ...Middleware) Middleware {
	return func(h http.Handler) http.Handler { return Chain(h, mws...) }
}
