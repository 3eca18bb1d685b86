package keystore_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/cache"
	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/jwk"
	"github.com/dropDatabas3/hellojwks/internal/keystore"
	"github.com/dropDatabas3/hellojwks/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testRetention: P=100s, K=200s.
var testRetention = keystore.Retention{PrivateKey: 100 * time.Second, PublicOnly: 200 * time.Second}

func newManager(t *testing.T, repo repository.JWKRepository, c cache.Client) (*keystore.Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: t0}
	m, err := keystore.NewManager(keystore.Deps{
		Repo:      repo,
		Builder:   jwk.NewBuilder(2048),
		Retention: testRetention,
		Clock:     clock.Now,
		Cache:     c,
		CacheTTL:  time.Hour,
	})
	require.NoError(t, err)
	return m, clock
}

func TestCreate_AssignsTimestamps(t *testing.T) {
	m, _ := newManager(t, memory.New(), nil)

	rec, err := m.Create(context.Background(), "Ed25519")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, rec.ID)
	require.Equal(t, "OKP", rec.Kty)
	require.Equal(t, "EdDSA", rec.Alg)
	require.Equal(t, "Ed25519", rec.Crv)
	require.True(t, rec.CreatedAt.Equal(t0))
	require.True(t, rec.PrivateKeyExpiresAt.Equal(t0.Add(100*time.Second)))
	require.True(t, rec.KeyExpiresAt.Equal(t0.Add(300*time.Second)))
	require.Nil(t, rec.DeletedAt)
	require.Equal(t, keystore.StateActive, m.State(rec, t0))
}

func TestCreate_UnsupportedAlgorithmCreatesNothing(t *testing.T) {
	repo := memory.New()
	m, _ := newManager(t, repo, nil)

	for _, alg := range []string{"HS256", "rs256", "", "EdDSA"} {
		_, err := m.Create(context.Background(), alg)
		require.ErrorIs(t, err, jwk.ErrUnsupportedAlgorithm, alg)
	}
	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestLifecycle_PrivateThenPublicExpiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t, memory.New(), nil)

	rec, err := m.Create(ctx, "ES256")
	require.NoError(t, err)

	// T+50: Active, privada disponible
	clock.Set(t0.Add(50 * time.Second))
	got, err := m.GetPrivate(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.PrivateKey, got.PrivateKey)
	keys, err := m.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, rec.Kid, keys[0].Kid)

	// T+150: PrivateExpired, sigue listada
	clock.Set(t0.Add(150 * time.Second))
	_, err = m.GetPrivate(ctx, rec.ID)
	require.ErrorIs(t, err, repository.ErrPrivateKeyGone)
	keys, err = m.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, keystore.StatePrivateExpired, m.State(rec, clock.Now()))

	// T+350: FullyExpired, invisible
	clock.Set(t0.Add(350 * time.Second))
	_, err = m.GetPrivate(ctx, rec.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	keys, err = m.ListPublic(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
	require.Equal(t, keystore.StateFullyExpired, m.State(rec, clock.Now()))
}

func TestGetPrivate_Boundaries(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t, memory.New(), nil)

	rec, err := m.Create(ctx, "Ed25519")
	require.NoError(t, err)

	// now == private_key_expires_at: el estado es Active pero la privada ya no se entrega
	clock.Set(*rec.PrivateKeyExpiresAt)
	require.Equal(t, keystore.StateActive, m.State(rec, clock.Now()))
	_, err = m.GetPrivate(ctx, rec.ID)
	require.ErrorIs(t, err, repository.ErrPrivateKeyGone)

	// now == key_expires_at: ya no visible
	clock.Set(*rec.KeyExpiresAt)
	_, err = m.GetPrivate(ctx, rec.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	keys, err := m.ListPublic(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestDelete_IsTerminal(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t, memory.New(), nil)

	rec, err := m.Create(ctx, "Ed25519")
	require.NoError(t, err)
	keep, err := m.Create(ctx, "Ed25519")
	require.NoError(t, err)

	clock.Set(t0.Add(10 * time.Second))
	require.NoError(t, m.Delete(ctx, rec.ID))

	_, err = m.GetPrivate(ctx, rec.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	keys, err := m.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, keep.Kid, keys[0].Kid)

	require.ErrorIs(t, m.Delete(ctx, rec.ID), repository.ErrNotFound)
	require.ErrorIs(t, m.Delete(ctx, uuid.New()), repository.ErrNotFound)

	insp, err := m.Inspect(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, keystore.StateDeleted, insp.State)
	require.Empty(t, insp.Record.PrivateKey)
	require.True(t, insp.Record.DeletedAt.Equal(t0.Add(10*time.Second)))
}

func TestDelete_FullyExpiredKeyCanStillBeDeleted(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t, memory.New(), nil)

	rec, err := m.Create(ctx, "Ed25519")
	require.NoError(t, err)
	clock.Set(t0.Add(time.Hour))

	require.NoError(t, m.Delete(ctx, rec.ID))
	insp, err := m.Inspect(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, keystore.StateDeleted, insp.State)
}

func TestInspectAll_IncludesEveryRecord(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t, memory.New(), nil)

	a, err := m.Create(ctx, "Ed25519")
	require.NoError(t, err)
	clock.Set(t0.Add(time.Second))
	b, err := m.Create(ctx, "ES384")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, a.ID))

	all, err := m.InspectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, a.ID, all[0].Record.ID)
	require.Equal(t, keystore.StateDeleted, all[0].State)
	require.Equal(t, b.ID, all[1].Record.ID)
	require.Equal(t, keystore.StateActive, all[1].State)
	for _, i := range all {
		require.Empty(t, i.Record.PrivateKey)
	}
}

func decodeJWKS(t *testing.T, b []byte) repository.JWKS {
	t.Helper()
	var doc repository.JWKS
	require.NoError(t, json.Unmarshal(b, &doc))
	return doc
}

func TestJWKSJSON_CacheInvalidationAndCap(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t, memory.New(), cache.NewMemory("test"))

	doc := decodeJWKS(t, mustJWKS(t, m))
	require.Empty(t, doc.Keys)

	// Create invalida el documento cacheado
	rec, err := m.Create(ctx, "Ed25519")
	require.NoError(t, err)
	doc = decodeJWKS(t, mustJWKS(t, m))
	require.Len(t, doc.Keys, 1)
	require.Equal(t, "sig", doc.Keys[0].Use)

	// el documento cacheado no sobrevive al key_expires_at de sus claves,
	// aunque el TTL del cache (1h) sea mayor
	clock.Set(*rec.KeyExpiresAt)
	doc = decodeJWKS(t, mustJWKS(t, m))
	require.Empty(t, doc.Keys)

	// Delete invalida
	clock.Set(t0.Add(time.Hour))
	other, err := m.Create(ctx, "Ed25519")
	require.NoError(t, err)
	require.Len(t, decodeJWKS(t, mustJWKS(t, m)).Keys, 1)
	require.NoError(t, m.Delete(ctx, other.ID))
	require.Empty(t, decodeJWKS(t, mustJWKS(t, m)).Keys)
}

// gatedListRepo frena el primer List armado después de leer el store, para
// intercalar una escritura entre la lectura y la escritura al cache.
type gatedListRepo struct {
	repository.JWKRepository
	armed   atomic.Bool
	listed  chan struct{}
	release chan struct{}
}

func (r *gatedListRepo) List(ctx context.Context) ([]*repository.Record, error) {
	recs, err := r.JWKRepository.List(ctx)
	if r.armed.CompareAndSwap(true, false) {
		close(r.listed)
		<-r.release
	}
	return recs, err
}

func TestJWKSJSON_DeleteDuringSlowReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo := &gatedListRepo{
		JWKRepository: memory.New(),
		listed:        make(chan struct{}),
		release:       make(chan struct{}),
	}
	m, _ := newManager(t, repo, cache.NewMemory("test"))

	rec, err := m.Create(ctx, "ES256")
	require.NoError(t, err)

	repo.armed.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := m.JWKSJSON(ctx)
		done <- err
	}()

	<-repo.listed
	require.NoError(t, m.Delete(ctx, rec.ID))
	close(repo.release)
	require.NoError(t, <-done)

	doc := decodeJWKS(t, mustJWKS(t, m))
	for _, k := range doc.Keys {
		require.NotEqual(t, rec.Kid, k.Kid, "la clave borrada sigue publicada")
	}
	require.Empty(t, doc.Keys)
}

func TestJWKSJSON_SharedCacheSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	shared := cache.NewMemory("test")
	a, _ := newManager(t, repo, shared)
	b, _ := newManager(t, repo, shared)

	rec, err := a.Create(ctx, "Ed25519")
	require.NoError(t, err)
	require.Len(t, decodeJWKS(t, mustJWKS(t, a)).Keys, 1)

	require.NoError(t, b.Delete(ctx, rec.ID))
	require.Empty(t, decodeJWKS(t, mustJWKS(t, a)).Keys)
}

func TestJWKSJSON_NeverExposesPrivateFields(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, memory.New(), nil)

	for _, alg := range []string{"RS256", "ES512", "Ed448"} {
		_, err := m.Create(ctx, alg)
		require.NoError(t, err)
	}

	var raw struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(mustJWKS(t, m), &raw))
	require.Len(t, raw.Keys, 3)
	for _, k := range raw.Keys {
		for _, forbidden := range []string{"private_key", "deleted_at", "private_key_expires_at", "key_expires_at", "id", "created_at"} {
			require.NotContains(t, k, forbidden)
		}
	}
}

func mustJWKS(t *testing.T, m *keystore.Manager) []byte {
	t.Helper()
	b, err := m.JWKSJSON(context.Background())
	require.NoError(t, err)
	return b
}

func TestCreate_ConcurrentGenerationsAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	m, _ := newManager(t, repo, nil)

	const n = 16
	var g errgroup.Group
	for i := 0; i < n; i++ {
		alg := []string{"ES256", "Ed25519", "Ed448", "ES384"}[i%4]
		g.Go(func() error {
			_, err := m.Create(ctx, alg)
			return err
		})
	}
	require.NoError(t, g.Wait())

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)
	kids := map[string]bool{}
	for _, r := range all {
		require.False(t, kids[r.Kid])
		kids[r.Kid] = true
	}
}

// failingRepo falla en todas las operaciones.
type failingRepo struct{ err error }

func (f failingRepo) Insert(context.Context, *repository.Record) error { return f.err }
func (f failingRepo) Get(context.Context, uuid.UUID) (*repository.Record, error) {
	return nil, f.err
}
func (f failingRepo) List(context.Context) ([]*repository.Record, error) { return nil, f.err }
func (f failingRepo) SoftDelete(context.Context, uuid.UUID, time.Time) (int64, error) {
	return 0, f.err
}
func (f failingRepo) Ping(context.Context) error { return f.err }

func TestStoreFailuresAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	m, _ := newManager(t, failingRepo{err: boom}, nil)

	_, err := m.Create(ctx, "Ed25519")
	require.ErrorIs(t, err, repository.ErrStore)
	require.ErrorIs(t, err, boom)

	_, err = m.ListPublic(ctx)
	require.ErrorIs(t, err, repository.ErrStore)

	_, err = m.JWKSJSON(ctx)
	require.ErrorIs(t, err, repository.ErrStore)

	_, err = m.GetPrivate(ctx, uuid.New())
	require.ErrorIs(t, err, repository.ErrStore)

	require.ErrorIs(t, m.Delete(ctx, uuid.New()), repository.ErrStore)
	require.ErrorIs(t, m.Ping(ctx), repository.ErrStore)
}

func TestNewManager_Validation(t *testing.T) {
	_, err := keystore.NewManager(keystore.Deps{Retention: keystore.DefaultRetention()})
	require.Error(t, err)

	_, err = keystore.NewManager(keystore.Deps{Repo: memory.New(), Retention: keystore.Retention{PrivateKey: time.Second}})
	require.Error(t, err)

	m, err := keystore.NewManager(keystore.Deps{Repo: memory.New(), Retention: keystore.DefaultRetention()})
	require.NoError(t, err)
	require.Equal(t, 86400*time.Second, m.Retention().PrivateKey)
	require.Equal(t, 172800*time.Second, m.Retention().PublicOnly)
}
