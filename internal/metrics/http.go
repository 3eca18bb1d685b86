package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP agrupa las métricas de requests HTTP.
// El label route es el patrón de chi (/jwks/{id}), nunca el path crudo.
type HTTP struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Inflight *prometheus.GaugeVec
}

// NewHTTP crea y registra las métricas HTTP en reg.
func NewHTTP(reg prometheus.Registerer) (*HTTP, error) {
	m := &HTTP{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método",
		}, []string{"method"}),
	}
	for _, c := range []prometheus.Collector{m.Requests, m.Duration, m.Inflight} {
		if err := Register(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Begin marca un request en vuelo; el func devuelto lo cierra con route y status.
func (m *HTTP) Begin(method string) func(route string, status int) {
	if m == nil {
		return func(string, int) {}
	}
	start := time.Now()
	m.Inflight.WithLabelValues(method).Inc()
	return func(route string, status int) {
		m.Inflight.WithLabelValues(method).Dec()
		m.Duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
}
