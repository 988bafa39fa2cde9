package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Database Metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "collection"},
	)

	MongoPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mongo_pool_connections",
			Help: "MongoDB driver pool connections by state",
		},
		[]string{"state"}, // open, checked_out
	)

	// Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"}, // hit, miss, error
	)

	// Engine Metrics
	ProgressOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_operations_total",
			Help: "Progress engine operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	WriteConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progress_write_conflicts_total",
			Help: "Optimistic write collisions on user documents",
		},
		[]string{"operation"},
	)

	StatsRecalcSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "progress_stats_recalc_skipped_total",
			Help: "Stats recalculations skipped because the catalog was unavailable",
		},
	)

	AchievementsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_awarded_total",
			Help: "Achievements awarded by rarity",
		},
		[]string{"rarity"},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Dashboard logins by client device class",
		},
		[]string{"device"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // db, cache, collaborator, validation
	)
)

// TrackDBOperation tracks database operation duration
func TrackDBOperation(operation, collection string) *prometheus.Timer {
	return prometheus.NewTimer(DBOperationDuration.WithLabelValues(operation, collection))
}

// TrackCacheLookup records a cache hit, miss or error
func TrackCacheLookup(cache, result string) {
	CacheLookups.WithLabelValues(cache, result).Inc()
}

func TrackProgressOperation(operation, outcome string) {
	ProgressOperations.WithLabelValues(operation, outcome).Inc()
}

func TrackWriteConflict(operation string) {
	WriteConflicts.WithLabelValues(operation).Inc()
}

func TrackAchievementAwarded(rarity string) {
	if rarity == "" {
		rarity = "common"
	}
	AchievementsAwarded.WithLabelValues(rarity).Inc()
}

func TrackLogin(device string) {
	Logins.WithLabelValues(device).Inc()
}

// TrackError increments the error counter by type
func TrackError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
