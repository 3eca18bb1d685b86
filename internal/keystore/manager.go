// Package keystore gobierna el ciclo de vida de las claves publicadas:
// asigna id y timestamps al crear, decide visibilidad al leer y aplica el
// soft delete. El estado se deriva siempre de (registro, Retention, now).
package keystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/audit"
	"github.com/dropDatabas3/hellojwks/internal/cache"
	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/jwk"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
	"github.com/google/uuid"
)

// Observer recibe eventos del ciclo de vida. *metrics.Keys lo implementa.
type Observer interface {
	KeyGenerated(alg string, d time.Duration)
	KeyGenerationFailed(alg, reason string)
	KeyDeleted()
	PrivateKeyWithheld()
	JWKSCacheResult(hit bool)
}

// Deps agrupa las dependencias del Manager.
type Deps struct {
	Repo      repository.JWKRepository
	Builder   *jwk.Builder
	Retention Retention

	// Clock devuelve el instante actual. Default: time.Now en UTC.
	Clock func() time.Time

	// Cache del documento JWKS serializado. nil = sin cache.
	Cache    cache.Client
	CacheTTL time.Duration

	Observer Observer
}

// Manager implementa las operaciones sobre claves.
// Es seguro para uso concurrente: no guarda estado mutable propio.
type Manager struct {
	repo      repository.JWKRepository
	builder   *jwk.Builder
	retention Retention
	clock     func() time.Time
	docs      *documentCache
	obs       Observer
}

// NewManager valida las dependencias y crea el Manager.
func NewManager(d Deps) (*Manager, error) {
	if d.Repo == nil {
		return nil, errors.New("keystore: repository is required")
	}
	if err := d.Retention.Validate(); err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	if d.Builder == nil {
		d.Builder = jwk.NewBuilder(jwk.DefaultRSABits)
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Builder.Issuer != nil && d.Builder.Issuer.Validity == 0 {
		d.Builder.Issuer.Validity = d.Retention.Total()
	}
	return &Manager{
		repo:      d.Repo,
		builder:   d.Builder,
		retention: d.Retention,
		clock:     d.Clock,
		docs:      newDocumentCache(d.Cache, d.CacheTTL),
		obs:       d.Observer,
	}, nil
}

// Retention devuelve la retención configurada.
func (m *Manager) Retention() Retention { return m.retention }

// Now devuelve el instante actual según el reloj inyectado.
func (m *Manager) Now() time.Time { return m.clock() }

// State deriva el estado de rec en now.
func (m *Manager) State(rec *repository.Record, now time.Time) State {
	return StateAt(rec, now)
}

// =================================================================================
// CREATE
// =================================================================================

// Create genera una clave nueva para alg y la persiste en estado Active.
// Errores: jwk.ErrUnsupportedAlgorithm, jwk.ErrGeneration, jwk.ErrEncoding,
// repository.ErrStore. Ante cualquier error no queda registro.
func (m *Manager) Create(ctx context.Context, alg string) (*repository.Record, error) {
	log := logger.From(ctx).With(logger.Layer("keystore"), logger.Op("Create"), logger.Alg(alg))

	a, err := jwk.ParseAlgorithm(alg)
	if err != nil {
		m.obs.KeyGenerationFailed(alg, "unsupported")
		return nil, err
	}

	start := time.Now()
	fields, err := m.builder.Build(a)
	if err != nil {
		m.obs.KeyGenerationFailed(a.String(), failureReason(err))
		log.Error("key generation failed", logger.Err(err))
		return nil, err
	}
	elapsed := time.Since(start)

	now := m.clock()
	pke := now.Add(m.retention.PrivateKey)
	kea := pke.Add(m.retention.PublicOnly)

	rec := &repository.Record{
		ID:                  uuid.New(),
		Kty:                 fields.Kty,
		Alg:                 fields.Alg,
		Kid:                 fields.Kid,
		Crv:                 fields.Crv,
		X:                   fields.X,
		Y:                   fields.Y,
		N:                   fields.N,
		E:                   fields.E,
		X5c:                 fields.X5c,
		X5t:                 fields.X5t,
		PrivateKey:          fields.PrivateKey,
		CreatedAt:           now,
		PrivateKeyExpiresAt: &pke,
		KeyExpiresAt:        &kea,
	}

	if err := m.repo.Insert(ctx, rec); err != nil {
		m.obs.KeyGenerationFailed(a.String(), "store")
		log.Error("key insert failed", logger.Err(err))
		return nil, storeErr("insert", err)
	}
	m.obs.KeyGenerated(a.String(), elapsed)
	m.docs.bump(ctx)

	audit.Log(ctx, audit.EventKeyCreated,
		logger.KeyID(rec.ID.String()),
		logger.KID(rec.Kid),
		logger.Alg(rec.Alg),
		logger.DurationMs(elapsed.Milliseconds()),
	)
	return rec, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwk.ErrUnsupportedAlgorithm):
		return "unsupported"
	case errors.Is(err, jwk.ErrEncoding):
		return "encoding"
	default:
		return "generation"
	}
}

// =================================================================================
// READ
// =================================================================================

// visible devuelve los registros visibles en now, en el orden del store.
func (m *Manager) visible(ctx context.Context, now time.Time) ([]*repository.Record, error) {
	recs, err := m.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list", err)
	}
	out := make([]*repository.Record, 0, len(recs))
	for _, r := range recs {
		if Visible(r, now) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListPublic devuelve la forma pública de todas las claves visibles.
func (m *Manager) ListPublic(ctx context.Context) ([]repository.PublicJWK, error) {
	recs, err := m.visible(ctx, m.clock())
	if err != nil {
		return nil, err
	}
	keys := make([]repository.PublicJWK, 0, len(recs))
	for _, r := range recs {
		keys = append(keys, r.Public())
	}
	return keys, nil
}

// JWKS devuelve el conjunto público como documento JWKS.
func (m *Manager) JWKS(ctx context.Context) (repository.JWKS, error) {
	keys, err := m.ListPublic(ctx)
	if err != nil {
		return repository.JWKS{}, err
	}
	return repository.JWKS{Keys: keys}, nil
}

// JWKSJSON devuelve el documento JWKS serializado, desde cache si está fresco.
// Un documento cacheado nunca sobrevive al primer key_expires_at que contiene
// ni a una escritura posterior al store.
func (m *Manager) JWKSJSON(ctx context.Context) ([]byte, error) {
	now := m.clock()
	snap := m.docs.begin(ctx)
	if b, ok := m.docs.get(ctx, snap, now); ok {
		m.obs.JWKSCacheResult(true)
		return b, nil
	}
	m.obs.JWKSCacheResult(false)

	recs, err := m.visible(ctx, now)
	if err != nil {
		return nil, err
	}
	doc := repository.JWKS{Keys: make([]repository.PublicJWK, 0, len(recs))}
	var earliest *time.Time
	for _, r := range recs {
		doc.Keys = append(doc.Keys, r.Public())
		if earliest == nil || r.KeyExpiresAt.Before(*earliest) {
			earliest = r.KeyExpiresAt
		}
	}
	return m.docs.put(ctx, snap, doc, now, earliest)
}

// GetPrivate devuelve el registro completo, incluida la clave privada.
// ErrNotFound si no existe o no es visible; ErrPrivateKeyGone si es visible
// pero now >= private_key_expires_at.
func (m *Manager) GetPrivate(ctx context.Context, id uuid.UUID) (*repository.Record, error) {
	rec, err := m.repo.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, storeErr("get", err)
	}
	now := m.clock()
	if !Visible(rec, now) {
		return nil, repository.ErrNotFound
	}
	if !PrivateUsable(rec, now) {
		m.obs.PrivateKeyWithheld()
		return nil, repository.ErrPrivateKeyGone
	}
	audit.Log(ctx, audit.EventPrivateKeyRead, logger.KeyID(rec.ID.String()), logger.KID(rec.Kid))
	return rec, nil
}

// Inspection es la vista de administración de un registro: sin filtro de
// visibilidad y con la clave privada redactada.
type Inspection struct {
	Record *repository.Record
	State  State
}

// Inspect devuelve cualquier registro existente, borrado o expirado, con su estado.
func (m *Manager) Inspect(ctx context.Context, id uuid.UUID) (*Inspection, error) {
	rec, err := m.repo.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, storeErr("get", err)
	}
	return m.inspection(rec, m.clock()), nil
}

// InspectAll devuelve todos los registros con su estado, incluidos borrados y expirados.
func (m *Manager) InspectAll(ctx context.Context) ([]*Inspection, error) {
	recs, err := m.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list", err)
	}
	now := m.clock()
	out := make([]*Inspection, 0, len(recs))
	for _, r := range recs {
		out = append(out, m.inspection(r, now))
	}
	return out, nil
}

func (m *Manager) inspection(rec *repository.Record, now time.Time) *Inspection {
	c := rec.Clone()
	c.PrivateKey = ""
	return &Inspection{Record: c, State: StateAt(rec, now)}
}

// =================================================================================
// DELETE
// =================================================================================

// Delete marca el registro como borrado. Es terminal: borrar un registro ya
// borrado o inexistente devuelve ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.From(ctx).With(logger.Layer("keystore"), logger.Op("Delete"), logger.KeyID(id.String()))

	n, err := m.repo.SoftDelete(ctx, id, m.clock())
	if err != nil {
		log.Error("soft delete failed", logger.Err(err))
		return storeErr("soft delete", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	m.obs.KeyDeleted()
	m.docs.bump(ctx)

	audit.Log(ctx, audit.EventKeyDeleted, logger.KeyID(id.String()))
	return nil
}

// Ping verifica el store si lo soporta.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.repo.(repository.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return storeErr("ping", err)
		}
	}
	return nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", repository.ErrStore, op, err)
}

type nopObserver struct{}

func (nopObserver) KeyGenerated(string, time.Duration) {}
func (nopObserver) KeyGenerationFailed(string, string) {}
func (nopObserver) KeyDeleted()                        {}
func (nopObserver) PrivateKeyWithheld()                {}
func (nopObserver) JWKSCacheResult(bool)               {}
