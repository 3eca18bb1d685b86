// Package memory implementa repository.JWKRepository en memoria.
// Sirve para desarrollo, tests y despliegues de una sola instancia sin base.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/google/uuid"
)

var _ repository.JWKRepository = (*Store)(nil)

// Store guarda copias de los registros; nunca devuelve punteros internos.
type Store struct {
	mu   sync.RWMutex
	recs map[uuid.UUID]*repository.Record
}

func New() *Store { return &Store{recs: make(map[uuid.UUID]*repository.Record)} }

func (s *Store) Insert(_ context.Context, rec *repository.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.recs[rec.ID]; dup {
		return repository.ErrConflict
	}
	s.recs[rec.ID] = rec.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*repository.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) List(_ context.Context) ([]*repository.Record, error) {
	s.mu.RLock()
	out := make([]*repository.Record, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok || rec.DeletedAt != nil {
		return 0, nil
	}
	t := at
	rec.DeletedAt = &t
	return 1, nil
}

// Ping siempre responde: no hay conexión que verificar.
func (s *Store) Ping(context.Context) error { return nil }
