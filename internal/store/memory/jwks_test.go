package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRecord(created time.Time) *repository.Record {
	return &repository.Record{
		ID:         uuid.New(),
		Kty:        "OKP",
		Alg:        "EdDSA",
		Kid:        uuid.NewString(),
		Crv:        "Ed25519",
		X:          "eA",
		PrivateKey: "cHJpdg",
		CreatedAt:  created,
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := newRecord(time.Now())
	require.NoError(t, s.Insert(ctx, rec))

	rec.Kid = "mutated-after-insert"
	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.NotEqual(t, "mutated-after-insert", got.Kid)

	got.Alg = "mutated-after-get"
	again, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "EdDSA", again.Alg)
}

func TestStore_DuplicateInsert(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := newRecord(time.Now())
	require.NoError(t, s.Insert(ctx, rec))
	require.ErrorIs(t, s.Insert(ctx, rec), repository.ErrConflict)
}

func TestStore_ListOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	third, first, second := newRecord(base.Add(2*time.Second)), newRecord(base), newRecord(base.Add(time.Second))
	for _, r := range []*repository.Record{third, first, second} {
		require.NoError(t, s.Insert(ctx, r))
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)
	require.Equal(t, third.ID, list[2].ID)
}

func TestStore_SoftDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := newRecord(time.Now())
	require.NoError(t, s.Insert(ctx, rec))

	at := time.Now().Add(time.Minute)
	n, err := s.SoftDelete(ctx, rec.ID, at)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.SoftDelete(ctx, rec.ID, at.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, got.DeletedAt.Equal(at), "deleted_at is never overwritten")

	n, err = s.SoftDelete(ctx, uuid.New(), at)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = s.Get(ctx, uuid.New())
	require.ErrorIs(t, err, repository.ErrNotFound)
}
