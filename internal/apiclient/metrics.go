package apiclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stayweb_api_requests_total",
		Help: "Outbound marketplace API requests by method and status.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stayweb_api_request_duration_seconds",
		Help:    "Latency of outbound marketplace API requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// observe records one finished call; status 0 means the transport failed
func observe(method string, status int, started time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(method, label).Inc()
	requestDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}
