package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "skilltree"

// Metrics counts gateway calls by operation and result. A nil *Metrics
// records nothing.
type Metrics struct {
	CallsTotal      *prometheus.CounterVec
	CallDuration    *prometheus.HistogramVec
	ProgressWrites  prometheus.Counter
	NodesPerListing prometheus.Histogram
}

// NewMetrics registers the gateway collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Gateway calls by operation and result",
		}, []string{"op", "result"}),
		CallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Gateway call latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"op"}),
		ProgressWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "progress_writes_total",
			Help:      "Successful progress upserts",
		}),
		NodesPerListing: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "nodes_per_listing",
			Help:      "Nodes returned per tree listing",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000},
		}),
	}
}

func (m *Metrics) observeCall(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(KindOf(err))
	}
	m.CallsTotal.WithLabelValues(op, result).Inc()
	m.CallDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) observeNodes(n int) {
	if m == nil {
		return
	}
	m.NodesPerListing.Observe(float64(n))
}

func (m *Metrics) observeProgressWrite() {
	if m == nil {
		return
	}
	m.ProgressWrites.Inc()
}
