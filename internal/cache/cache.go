// Package cache provee el cache del documento JWKS con soporte multi-backend.
//
// Soporta:
//   - memory (in-process, go-cache)
//   - redis (compartido entre instancias)
//   - none (sin cache; cada lectura va al store)
//
// El cache guarda bytes opacos. Quién decide el TTL y cuándo invalidar es
// keystore.Manager.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor con TTL. ttl <= 0 no guarda nada.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina una key. Borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error

	// Incr incrementa atómicamente un contador sin expiración y devuelve el
	// valor nuevo. Un contador inexistente arranca en 0.
	Incr(ctx context.Context, key string) (int64, error)

	// Counter lee un contador de Incr. Inexistente devuelve 0 sin error.
	Counter(ctx context.Context, key string) (int64, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// Drivers soportados.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver   string // "memory" | "redis" | "none"
	Addr     string // host:port para redis
	Password string
	DB       int
	Prefix   string // Prefijo para todas las keys
}

// ErrNotFound indica cache miss.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case DriverRedis:
		return NewRedis(cfg)
	case DriverMemory, "":
		return NewMemory(cfg.Prefix), nil
	case DriverNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}

// Noop nunca guarda nada: todo Get es miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)              { return nil, ErrNotFound }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error                     { return nil }
func (Noop) Incr(context.Context, string) (int64, error)              { return 0, nil }
func (Noop) Counter(context.Context, string) (int64, error)           { return 0, nil }
func (Noop) Ping(context.Context) error                               { return nil }
func (Noop) Close() error                                             { return nil }
