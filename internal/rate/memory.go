package rate

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el fixed window en proceso sobre go-cache. Solo vale para
// una instancia. Cada ventana es una key propia que expira sola.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	// Now permite fijar el reloj en tests. Default: time.Now.
	Now func() time.Time

	c *gocache.Cache
}

func NewMemoryLimiter(max int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:    int64(max),
		Window: win,
		c:      gocache.New(win, 2*win),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	start := now.Truncate(l.Window)
	ttl := start.Add(l.Window).Sub(now)
	k := key + ":" + strconv.FormatInt(start.UnixNano(), 10)

	// Add solo crea si no existe; IncrementInt64 es atómico.
	_ = l.c.Add(k, int64(0), ttl)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// expiró entre Add e Increment: arranca una ventana nueva
		l.c.Set(k, int64(1), ttl)
		hits = 1
	}
	return result(l.Max, hits, ttl), nil
}
