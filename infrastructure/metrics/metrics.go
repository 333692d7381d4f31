// Package metrics exposes Prometheus collectors for the HTTP surface and the
// delivery fan-out.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnicast_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omnicast_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	UploadsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "omnicast_uploads_created_total",
			Help: "Total number of accepted uploads",
		},
	)

	DeliveriesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "omnicast_deliveries_active",
			Help: "Number of platform deliveries currently running",
		},
	)

	DeliveryOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnicast_delivery_outcomes_total",
			Help: "Finished platform deliveries by terminal status",
		},
		[]string{"status"},
	)

	ObserverErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnicast_observer_errors_total",
			Help: "Delivery event observer failures by observer",
		},
		[]string{"observer"},
	)
)

func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordDeliveryOutcome(status string) {
	DeliveryOutcomesTotal.WithLabelValues(status).Inc()
}

func RecordObserverError(observer string) {
	ObserverErrorsTotal.WithLabelValues(observer).Inc()
}
