// Package metrics exposes gateway counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solswap_quotes_total", Help: "Quotes served, by trade side"},
		[]string{"side"},
	)
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solswap_submissions_total", Help: "Transactions submitted, by delivery channel"},
		[]string{"channel"},
	)
	ConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solswap_confirmations_total", Help: "Confirmation outcomes"},
		[]string{"outcome"},
	)
	QuoteLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solswap_quote_latency_seconds",
			Help:    "Aggregator quote round-trip latency",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(QuotesTotal, SubmissionsTotal, ConfirmationsTotal, QuoteLatency)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
