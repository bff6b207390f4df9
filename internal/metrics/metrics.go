// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes.
const (
	OutcomeGranted   = "granted"
	OutcomeForbidden = "forbidden"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

var (
	resolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logtrail_access_resolve_duration_seconds",
			Help:    "Time spent resolving an application for a user",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logtrail_query_duration_seconds",
			Help:    "Time spent answering a log query, by mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	tailSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logtrail_tail_subscribers",
		Help: "Number of open live tail subscriptions",
	})

	tailDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "logtrail_tail_dropped_total",
		Help: "Records dropped because a live tail subscriber fell behind",
	})
)

// ObserveResolve records one access resolution.
func ObserveResolve(outcome string, d time.Duration) {
	resolveDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveQuery records one log query.
func ObserveQuery(mode string, d time.Duration) {
	queryDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func TailSubscribed()   { tailSubscribers.Inc() }
func TailUnsubscribed() { tailSubscribers.Dec() }
func TailDropped()      { tailDropped.Inc() }

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
