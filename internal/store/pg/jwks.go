package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var _ repository.JWKRepository = (*Store)(nil)

const jwkColumns = `id, kty, alg, kid, crv, x, y, n, e, x5c, x5t, private_key,
       created_at, deleted_at, private_key_expires_at, key_expires_at`

// Insert persiste un registro nuevo.
func (s *Store) Insert(ctx context.Context, rec *repository.Record) error {
	const q = `
INSERT INTO jwks (` + jwkColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := s.pool.Exec(ctx, q,
		rec.ID.String(), rec.Kty, rec.Alg, rec.Kid,
		nullable(rec.Crv), nullable(rec.X), nullable(rec.Y), nullable(rec.N), nullable(rec.E),
		rec.X5c, nullable(rec.X5t), rec.PrivateKey,
		rec.CreatedAt, rec.DeletedAt, rec.PrivateKeyExpiresAt, rec.KeyExpiresAt,
	)
	return err
}

// Get busca un registro por id, borrado o no.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*repository.Record, error) {
	const q = `SELECT ` + jwkColumns + ` FROM jwks WHERE id = $1`
	rec, err := scanRecord(s.pool.QueryRow(ctx, q, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List devuelve todos los registros ordenados por created_at.
func (s *Store) List(ctx context.Context) ([]*repository.Record, error) {
	const q = `SELECT ` + jwkColumns + ` FROM jwks ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*repository.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SoftDelete fija deleted_at solo si todavía no estaba fijado.
func (s *Store) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	const q = `UPDATE jwks SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := s.pool.Exec(ctx, q, id.String(), at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*repository.Record, error) {
	var (
		rec                repository.Record
		id                 string
		crv, x, y, n, e    *string
		x5t                *string
		createdAt          time.Time
		deletedAt, pke, ke *time.Time
	)
	if err := row.Scan(&id, &rec.Kty, &rec.Alg, &rec.Kid, &crv, &x, &y, &n, &e,
		&rec.X5c, &x5t, &rec.PrivateKey, &createdAt, &deletedAt, &pke, &ke); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("jwks row with invalid id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Crv, rec.X, rec.Y, rec.N, rec.E = deref(crv), deref(x), deref(y), deref(n), deref(e)
	rec.X5t = deref(x5t)
	rec.CreatedAt = createdAt.UTC()
	rec.DeletedAt = utc(deletedAt)
	rec.PrivateKeyExpiresAt = utc(pke)
	rec.KeyExpiresAt = utc(ke)
	return &rec, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
