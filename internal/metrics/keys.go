// Package metrics define las métricas Prometheus del ciclo de vida de claves.
// Vive aparte de internal/http para que keystore y cmd/keys lo usen sin ciclos.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Keys agrupa las métricas de generación y borrado de claves.
type Keys struct {
	Generated          *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	GenerationLatency  *prometheus.HistogramVec
	Deleted            prometheus.Counter
	PrivateKeyGone     prometheus.Counter
	JWKSCache          *prometheus.CounterVec
}

// NewKeys crea las métricas y las registra en reg (o el default si es nil).
// Registrar dos veces el mismo collector no es error: se reutiliza el existente.
func NewKeys(reg prometheus.Registerer) (*Keys, error) {
	k := &Keys{
		Generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jwks_keys_generated_total",
			Help: "Claves generadas y persistidas por algoritmo",
		}, []string{"alg"}),
		GenerationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jwks_key_generation_failures_total",
			Help: "Generaciones fallidas por algoritmo y motivo",
		}, []string{"alg", "reason"}), // reason: unsupported|generation|encoding|store
		GenerationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jwks_key_generation_duration_seconds",
			Help:    "Latencia de generación + codificación de claves",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"alg"}),
		Deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jwks_keys_deleted_total",
			Help: "Claves borradas (soft delete)",
		}),
		PrivateKeyGone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jwks_private_key_gone_total",
			Help: "Lecturas de clave privada rechazadas por expiración",
		}),
		JWKSCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jwks_document_cache_total",
			Help: "Lecturas del documento JWKS por resultado de cache",
		}, []string{"result"}), // result: hit|miss
	}

	for _, c := range []prometheus.Collector{
		k.Generated, k.GenerationFailures, k.GenerationLatency,
		k.Deleted, k.PrivateKeyGone, k.JWKSCache,
	} {
		if err := Register(reg, c); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// Register registra el collector en reg, ignorando duplicados.
func Register(reg prometheus.Registerer, c prometheus.Collector) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

// KeyGenerated registra una generación exitosa.
func (k *Keys) KeyGenerated(alg string, d time.Duration) {
	if k == nil {
		return
	}
	k.Generated.WithLabelValues(alg).Inc()
	k.GenerationLatency.WithLabelValues(alg).Observe(d.Seconds())
}

// KeyGenerationFailed registra una generación fallida.
func (k *Keys) KeyGenerationFailed(alg, reason string) {
	if k == nil {
		return
	}
	k.GenerationFailures.WithLabelValues(alg, reason).Inc()
}

// KeyDeleted registra un soft delete.
func (k *Keys) KeyDeleted() {
	if k == nil {
		return
	}
	k.Deleted.Inc()
}

// PrivateKeyWithheld registra una lectura rechazada por PrivateKeyGone.
func (k *Keys) PrivateKeyWithheld() {
	if k == nil {
		return
	}
	k.PrivateKeyGone.Inc()
}

// JWKSCacheResult registra hit/miss del documento JWKS.
func (k *Keys) JWKSCacheResult(hit bool) {
	if k == nil {
		return
	}
	if hit {
		k.JWKSCache.WithLabelValues("hit").Inc()
		return
	}
	k.JWKSCache.WithLabelValues("miss").Inc()
}
