package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradgate",
		Name:      "enrollments_total",
		Help:      "Total number of student enrollments",
	}, []string{"biometric"})

	Identifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradgate",
		Name:      "identifications_total",
		Help:      "Total number of face identification attempts",
	}, []string{"outcome"})

	QueuePushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradgate",
		Name:      "queue_pushes_total",
		Help:      "Total number of queue enqueue attempts",
	}, []string{"outcome"})

	QueuePops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradgate",
		Name:      "queue_pops_total",
		Help:      "Total number of queue dequeue attempts",
	}, []string{"outcome"})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gradgate",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gradgate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gradgate",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
