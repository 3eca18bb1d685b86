// Package docs sirve el documento OpenAPI embebido.
package docs

import (
	_ "embed"
	"net/http"

	"github.com/dropDatabas3/hellojwks/internal/http/helpers"
)

//go:embed openapi.json
var openAPI []byte

// OpenAPI devuelve el documento embebido (para tests y el CLI).
func OpenAPI() []byte { return openAPI }

// Controller maneja /api-docs/openapi.json
type Controller struct{}

// NewController crea el controller de documentación.
func NewController() *Controller { return &Controller{} }

// OpenAPIJSON maneja GET /api-docs/openapi.json
func (c *Controller) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	helpers.WriteRawJSON(w, http.StatusOK, openAPI)
}
