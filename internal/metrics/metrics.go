// Package metrics exposes Prometheus instrumentation for the ledger
// service. Everything registers against an explicit registry so tests can
// construct isolated instances.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	RecomputesTotal   prometheus.Counter
	RecomputeDuration prometheus.Histogram
	TransfersEmitted  prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecomputesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgex_recomputes_total",
			Help: "Number of full balance/settlement recomputations.",
		}),
		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgex_recompute_duration_seconds",
			Help:    "Duration of a full recomputation including receipt sync.",
			Buckets: prometheus.DefBuckets,
		}),
		TransfersEmitted: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgex_transfers_emitted",
			Help:    "Number of simplified transfers produced per recomputation.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgex_http_requests_total",
			Help: "HTTP requests by route pattern and status.",
		}, []string{"path", "status"}),
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// CountRequests instruments a handler with the HTTPRequests counter. The
// path label is the matched route pattern rather than the raw URL so that
// ids in the path do not explode label cardinality.
func (m *Metrics) CountRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
	})
}
