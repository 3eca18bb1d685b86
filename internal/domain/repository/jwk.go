package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UseSignature es el único "use" que se publica.
const UseSignature = "sig"

// Record es una clave persistida. Los campos opcionales vacíos no aplican a la
// familia del algoritmo: (n, e, x5c, x5t) solo RSA, (crv, x, y) solo EC,
// (crv, x) solo EdDSA.
//
// Los timestamps de ciclo de vida no se serializan nunca.
type Record struct {
	ID         uuid.UUID `json:"id"`
	Kty        string    `json:"kty"`
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

	DeletedAt           *time.Time `json:"-"`
	PrivateKeyExpiresAt *time.Time `json:"-"`
	KeyExpiresAt        *time.Time `json:"-"`
}

// Clone devuelve una copia profunda; los stores nunca comparten punteros con el llamador.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.X5c != nil {
		c.X5c = append([]string(nil), r.X5c...)
	}
	c.DeletedAt = cloneTime(r.DeletedAt)
	c.PrivateKeyExpiresAt = cloneTime(r.PrivateKeyExpiresAt)
	c.KeyExpiresAt = cloneTime(r.KeyExpiresAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Public proyecta el registro a su forma pública, sin material privado ni timestamps.
func (r *Record) Public() PublicJWK {
	return PublicJWK{
		Kty: r.Kty,
		Use: UseSignature,
		Alg: r.Alg,
		Kid: r.Kid,
		Crv: r.Crv,
		X:   r.X,
		Y:   r.Y,
		N:   r.N,
		E:   r.E,
		X5c: r.X5c,
		X5t: r.X5t,
	}
}

// PublicJWK es una clave tal como aparece en /.well-known/jwks.json.
type PublicJWK struct {
	Kty string   `json:"kty"`
	Use string   `json:"use"`
	Alg string   `json:"alg"`
	Kid string   `json:"kid"`
	Crv string   `json:"crv,omitempty"`
	X   string   `json:"x,omitempty"`
	Y   string   `json:"y,omitempty"`
	N   string   `json:"n,omitempty"`
	E   string   `json:"e,omitempty"`
	X5c []string `json:"x5c,omitempty"`
	X5t string   `json:"x5t,omitempty"`
}

// JWKS representa un conjunto de claves públicas.
type JWKS struct {
	Keys []PublicJWK `json:"keys"`
}

// JWKRepository es el contrato del record store. Sin reglas de negocio:
// la visibilidad la decide keystore.Manager.
type JWKRepository interface {
	// Insert persiste un registro nuevo. Escritura atómica de una fila.
	Insert(ctx context.Context, rec *Record) error

	// Get devuelve el registro por id, borrado o no. ErrNotFound si no existe.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// List devuelve todos los registros, incluidos los borrados, ordenados por created_at.
	List(ctx context.Context) ([]*Record, error)

	// SoftDelete fija deleted_at solo si todavía es NULL y devuelve las filas afectadas.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
}

// Pinger lo implementan los stores que pueden reportar conectividad (readyz).
type Pinger interface {
	Ping(ctx context.Context) error
}
