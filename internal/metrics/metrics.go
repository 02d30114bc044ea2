package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kiwoom_api_requests_total", Help: "Outbound API requests by operation id"},
		[]string{"api_id"},
	)
	APIRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kiwoom_api_retries_total", Help: "Request retries by operation id"},
		[]string{"api_id"},
	)
	RateLimitHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "kiwoom_rate_limit_hits_total", Help: "HTTP 429 responses received"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "swing_signals_total", Help: "Evaluated instruments by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal, APIRetriesTotal, RateLimitHitsTotal, SignalsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{ Addr: addr, Handler: mux }
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
