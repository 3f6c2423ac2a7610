package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Upload pipeline metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_uploads_total",
			Help: "Total number of upload batch files by outcome",
		},
		[]string{"outcome"}, // "stored", "skipped", "failed"
	)

	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_thumbnails_total",
			Help: "Total number of video thumbnail derivations by outcome",
		},
		[]string{"outcome"}, // "generated", "failed"
	)
)

// Reconciliation metrics
var (
	ReconcileRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_reconcile_runs_total",
			Help: "Total number of metadata reconciliation passes",
		},
	)

	ReconcilePrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_reconcile_pruned_total",
			Help: "Metadata entries removed because no backing file exists",
		},
	)

	ReconcileAdoptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_reconcile_adopted_total",
			Help: "Orphan files on disk adopted with default metadata",
		},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_reconcile_duration_seconds",
			Help:    "Duration of reconciliation passes in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)
)

// Gallery metrics
var (
	MediaFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gallery_media_files",
			Help: "Number of files in the upload directory by kind",
		},
		[]string{"kind"},
	)
)
