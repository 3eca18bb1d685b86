package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	migrations "github.com/dropDatabas3/hellojwks/migrations/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// openTestStore conecta a STORAGE_DSN o saltea el test.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("STORAGE_DSN")
	if dsn == "" {
		t.Skip("STORAGE_DSN not set; skipping postgres store tests")
	}
	ctx := context.Background()
	s, err := New(ctx, dsn, Options{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Migrate(ctx, migrations.FS, migrations.Dir)
	require.NoError(t, err)
	return s
}

func TestStore_InsertGetSoftDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	pke := now.Add(time.Hour)
	kea := now.Add(2 * time.Hour)
	rec := &repository.Record{
		ID:                  uuid.New(),
		Kty:                 "RSA",
		Alg:                 "RS256",
		Kid:                 uuid.NewString(),
		N:                   "AQAB",
		E:                   "AQAB",
		X5c:                 []string{"Y2VydA"},
		X5t:                 "dGh1bWI",
		PrivateKey:          "cHJpdg",
		CreatedAt:           now,
		PrivateKeyExpiresAt: &pke,
		KeyExpiresAt:        &kea,
	}
	require.NoError(t, s.Insert(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Kid, got.Kid)
	require.Equal(t, rec.X5c, got.X5c)
	require.Empty(t, got.Crv)
	require.Nil(t, got.DeletedAt)
	require.True(t, got.KeyExpiresAt.Equal(kea))

	n, err := s.SoftDelete(ctx, rec.ID, now.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.SoftDelete(ctx, rec.ID, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	got, err = s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
	require.True(t, got.DeletedAt.Equal(now.Add(time.Minute)))
}

func TestStore_GetUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	res, err := s.Migrate(context.Background(), migrations.FS, migrations.Dir)
	require.NoError(t, err)
	require.Empty(t, res.Applied)
	require.NotEmpty(t, res.Skipped)
}

func TestStore_StatusReportsApplied(t *testing.T) {
	s := openTestStore(t)
	st, err := s.Status(context.Background(), migrations.FS, migrations.Dir)
	require.NoError(t, err)
	require.NotEmpty(t, st)
	for _, m := range st {
		require.True(t, m.Applied, "%d_%s", m.Version, m.Name)
	}
}
