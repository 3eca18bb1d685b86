// Package sealed decora un repository.JWKRepository para que la clave privada
// se guarde cifrada con secretbox. El resto de los campos pasa sin cambios.
package sealed

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/security/secretbox"
	"github.com/google/uuid"
)

var (
	_ repository.JWKRepository = (*Repo)(nil)
	_ repository.Pinger        = (*Repo)(nil)
)

type Repo struct {
	inner repository.JWKRepository
	box   *secretbox.Box
}

func Wrap(inner repository.JWKRepository, box *secretbox.Box) *Repo {
	return &Repo{inner: inner, box: box}
}

// Insert sella PrivateKey sobre una copia; rec no se modifica.
func (r *Repo) Insert(ctx context.Context, rec *repository.Record) error {
	c := rec.Clone()
	if c.PrivateKey != "" {
		s, err := r.box.Seal(c.PrivateKey)
		if err != nil {
			return fmt.Errorf("sealed: %w", err)
		}
		c.PrivateKey = s
	}
	return r.inner.Insert(ctx, c)
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*repository.Record, error) {
	rec, err := r.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.open(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List no abre private_key: los registros vuelven sellados. Los listados solo
// usan campos públicos y una fila ilegible no debe tumbar el JWKS. El material
// privado se obtiene con Get.
func (r *Repo) List(ctx context.Context) ([]*repository.Record, error) {
	return r.inner.List(ctx)
}

func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	return r.inner.SoftDelete(ctx, id, at)
}

// Ping delega si el store decorado lo soporta.
func (r *Repo) Ping(ctx context.Context) error {
	if p, ok := r.inner.(repository.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (r *Repo) open(rec *repository.Record) error {
	plain, err := r.box.Open(rec.PrivateKey)
	if err != nil {
		return fmt.Errorf("sealed: key %s: %w", rec.ID, err)
	}
	rec.PrivateKey = plain
	return nil
}
