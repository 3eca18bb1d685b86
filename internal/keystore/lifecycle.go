package keystore

import (
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
)

// Defaults de retención.
const (
	DefaultPrivateKeyRetention = 86400 * time.Second
	DefaultPublicOnlyRetention = 172800 * time.Second
)

// Retention fija cuánto vive cada parte de una clave a partir de su creación.
//
//	created_at ──PrivateKey──▶ private_key_expires_at ──PublicOnly──▶ key_expires_at
type Retention struct {
	PrivateKey time.Duration
	PublicOnly time.Duration
}

// DefaultRetention devuelve P=86400s, K=172800s.
func DefaultRetention() Retention {
	return Retention{
		PrivateKey: DefaultPrivateKeyRetention,
		PublicOnly: DefaultPublicOnlyRetention,
	}
}

// Validate exige ambos periodos positivos, así created_at < pke < kea.
func (r Retention) Validate() error {
	if r.PrivateKey <= 0 {
		return fmt.Errorf("private key retention must be positive, got %s", r.PrivateKey)
	}
	if r.PublicOnly <= 0 {
		return fmt.Errorf("public retention must be positive, got %s", r.PublicOnly)
	}
	return nil
}

// Total es el tiempo total de visibilidad (P + K).
func (r Retention) Total() time.Duration { return r.PrivateKey + r.PublicOnly }

// State es el estado derivado de un registro. Nunca se persiste.
type State int

const (
	StateActive State = iota + 1
	StatePrivateExpired
	StateFullyExpired
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePrivateExpired:
		return "private_expired"
	case StateFullyExpired:
		return "fully_expired"
	case StateDeleted:
		return "deleted"
	}
	return "unknown"
}

// StateAt deriva el estado de rec en el instante now. Función pura.
// Deleted gana sobre todo; un registro sin key_expires_at nunca fue visible
// y se trata como FullyExpired.
func StateAt(rec *repository.Record, now time.Time) State {
	switch {
	case rec.DeletedAt != nil:
		return StateDeleted
	case rec.KeyExpiresAt == nil || !now.Before(*rec.KeyExpiresAt):
		return StateFullyExpired
	case rec.PrivateKeyExpiresAt != nil && now.After(*rec.PrivateKeyExpiresAt):
		return StatePrivateExpired
	default:
		return StateActive
	}
}

// Visible: no borrado, con key_expires_at y now < key_expires_at.
// Es el filtro del listado público y de la lectura por id.
func Visible(rec *repository.Record, now time.Time) bool {
	return rec.DeletedAt == nil && rec.KeyExpiresAt != nil && now.Before(*rec.KeyExpiresAt)
}

// PrivateUsable indica si la clave privada todavía puede entregarse.
// En now == private_key_expires_at ya no se entrega.
func PrivateUsable(rec *repository.Record, now time.Time) bool {
	return rec.PrivateKeyExpiresAt == nil || now.Before(*rec.PrivateKeyExpiresAt)
}
