package keystore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dropDatabas3/hellojwks/internal/cache"
	"github.com/dropDatabas3/hellojwks/internal/domain/repository"
	"github.com/dropDatabas3/hellojwks/internal/observability/logger"
)

// Keys en el cache compartido.
const (
	jwksDocumentKey   = "jwks:document"
	jwksGenerationKey = "jwks:generation"
)

// headerLen: valid-until (8) + generación (8).
const headerLen = 16

// documentCache guarda el JWKS serializado precedido por su "válido hasta"
// (unix nanos, big-endian, reloj del Manager) y por la generación con la que
// se armó. Cada escritura al store incrementa la generación; un documento con
// generación vieja nunca se sirve, aunque un lector lento lo haya escrito
// después de la invalidación. El TTL del backend solo sirve para desalojar.
type documentCache struct {
	c   cache.Client
	ttl time.Duration
}

// snapshot es la generación observada antes de leer el store.
// ok=false: el cache no respondió y la lectura no se cachea.
type snapshot struct {
	gen int64
	ok  bool
}

func newDocumentCache(c cache.Client, ttl time.Duration) *documentCache {
	if c == nil || ttl <= 0 {
		return nil
	}
	return &documentCache{c: c, ttl: ttl}
}

// begin lee la generación actual. Debe llamarse antes de consultar el store.
func (d *documentCache) begin(ctx context.Context) snapshot {
	if d == nil {
		return snapshot{}
	}
	gen, err := d.c.Counter(ctx, jwksGenerationKey)
	if err != nil {
		logger.From(ctx).Warn("jwks cache generation read failed", logger.Layer("keystore"), logger.Err(err))
		return snapshot{}
	}
	return snapshot{gen: gen, ok: true}
}

func (d *documentCache) get(ctx context.Context, snap snapshot, now time.Time) ([]byte, bool) {
	if d == nil || !snap.ok {
		return nil, false
	}
	raw, err := d.c.Get(ctx, jwksDocumentKey)
	if err != nil {
		if !cache.IsNotFound(err) {
			logger.From(ctx).Warn("jwks cache read failed", logger.Layer("keystore"), logger.Err(err))
		}
		return nil, false
	}
	if len(raw) < headerLen {
		return nil, false
	}
	until := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:8])))
	gen := int64(binary.BigEndian.Uint64(raw[8:16]))
	if gen != snap.gen || !now.Before(until) {
		return nil, false
	}
	return raw[headerLen:], true
}

// put serializa doc y lo cachea hasta min(now+ttl, earliest), etiquetado con
// la generación de snap. Si la generación ya cambió no escribe nada. Devuelve
// el JSON aunque no se haya podido cachear.
func (d *documentCache) put(ctx context.Context, snap snapshot, doc repository.JWKS, now time.Time, earliest *time.Time) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if d == nil || !snap.ok {
		return b, nil
	}

	until := now.Add(d.ttl)
	if earliest != nil && earliest.Before(until) {
		until = *earliest
	}
	ttl := until.Sub(now)
	if ttl <= 0 {
		return b, nil
	}
	if cur, err := d.c.Counter(ctx, jwksGenerationKey); err != nil || cur != snap.gen {
		return b, nil
	}

	raw := make([]byte, headerLen+len(b))
	binary.BigEndian.PutUint64(raw[:8], uint64(until.UnixNano()))
	binary.BigEndian.PutUint64(raw[8:16], uint64(snap.gen))
	copy(raw[headerLen:], b)
	if err := d.c.Set(ctx, jwksDocumentKey, raw, ttl); err != nil {
		logger.From(ctx).Warn("jwks cache write failed", logger.Layer("keystore"), logger.Err(err))
	}
	return b, nil
}

// bump avanza la generación y borra el documento. Se llama después de cada
// escritura al store.
func (d *documentCache) bump(ctx context.Context) {
	if d == nil {
		return
	}
	log := logger.From(ctx)
	if _, err := d.c.Incr(ctx, jwksGenerationKey); err != nil {
		log.Warn("jwks cache generation bump failed", logger.Layer("keystore"), logger.Err(err))
	}
	if err := d.c.Delete(ctx, jwksDocumentKey); err != nil {
		log.Warn("jwks cache invalidation failed", logger.Layer("keystore"), logger.Err(err))
	}
}
