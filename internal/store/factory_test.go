package store

import (
	"context"
	"testing"

	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/security/secretbox"
	"github.com/dropDatabas3/hellojwks/internal/store/memory"
	"github.com/dropDatabas3/hellojwks/internal/store/sealed"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Config{Driver: DriverMemory})
	require.NoError(t, err)
	defer s.Close()
	require.IsType(t, &memory.Store{}, s.Repo)
	require.Nil(t, s.Pool)
}

func TestOpen_PostgresWithoutDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverPostgres})
	require.ErrorIs(t, err, repository.ErrNoDatabase)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	require.Error(t, err)
}

func TestOpen_MasterKeyWrapsRepo(t *testing.T) {
	// 32 bytes 0x00 en base64
	s, err := Open(context.Background(), Config{
		Driver:    DriverMemory,
		MasterKey: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
	})
	require.NoError(t, err)
	defer s.Close()
	require.IsType(t, &sealed.Repo{}, s.Repo)
}

func TestOpen_BadMasterKey(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: DriverMemory, MasterKey: "nope"})
	require.ErrorIs(t, err, secretbox.ErrInvalidKey)
}
