// Package keys contiene los DTOs de las rutas /jwks.
package keys

import (
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
)

// CreateKeyRequest es el body de POST /jwks.
type CreateKeyRequest struct {
	Alg string `json:"alg"`
}

// PrivateKeyResponse es el registro completo devuelto por POST /jwks y GET /jwks/{id}.
// Los timestamps de expiración y borrado no se exponen.
type PrivateKeyResponse struct {
	ID         string    `json:"id"`
	Kty        string    `json:"kty"`
	Use        string    `json:"use"`
	Alg        string    `json:"alg"`
	Kid        string    `json:"kid"`
	Crv        string    `json:"crv,omitempty"`
	X          string    `json:"x,omitempty"`
	Y          string    `json:"y,omitempty"`
	N          string    `json:"n,omitempty"`
	E          string    `json:"e,omitempty"`
	X5c        []string  `json:"x5c,omitempty"`
	X5t        string    `json:"x5t,omitempty"`
	PrivateKey string    `json:"private_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromRecord arma la respuesta a partir del registro persistido.
func FromRecord(rec *repository.Record) PrivateKeyResponse {
	return PrivateKeyResponse{
		ID:         rec.ID.String(),
		Kty:        rec.Kty,
		Use:        repository.UseSignature,
		Alg:        rec.Alg,
		Kid:        rec.Kid,
		Crv:        rec.Crv,
		X:          rec.X,
		Y:          rec.Y,
		N:          rec.N,
		E:          rec.E,
		X5c:        rec.X5c,
		X5t:        rec.X5t,
		PrivateKey: rec.PrivateKey,
		CreatedAt:  rec.CreatedAt.UTC(),
	}
}
