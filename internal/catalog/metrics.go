package catalog

import "github.com/prometheus/client_golang/prometheus"

// Source tells where a read was served from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceStore    Source = "store"
	SourceFallback Source = "fallback"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	reads         *prometheus.CounterVec
	invalidations prometheus.Counter
	storeUp       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_reads_total",
			Help: "Product reads by the source that served them",
		}, []string{"op", "source"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_invalidations_total",
			Help: "Cache clears triggered by catalog mutations",
		}),
		storeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_store_up",
			Help: "1 when the primary product store is reachable",
		}),
	}

	reg.MustRegister(m.reads, m.invalidations, m.storeUp)
	return m
}

func (m *Metrics) read(op string, src Source) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(op, string(src)).Inc()
}

func (m *Metrics) invalidated() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}

func (m *Metrics) SetStoreUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.storeUp.Set(1)
	} else {
		m.storeUp.Set(0)
	}
}
