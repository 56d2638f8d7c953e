package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Queue metrics
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewsync_queue_depth",
			Help: "Number of sync events currently queued",
		},
	)

	EventsDeduplicated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewsync_events_deduplicated_total",
			Help: "Total number of queued events replaced by a newer event for the same entity",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewsync_events_dropped_total",
			Help: "Total number of low priority events dropped because the queue was full",
		},
	)

	// Processing metrics
	EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewsync_events_processed_total",
			Help: "Total number of sync events processed by outcome",
		},
		[]string{"outcome"},
	)

	ProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crewsync_event_processing_duration_seconds",
			Help:    "Per-event processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	BatchesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewsync_batches_processed_total",
			Help: "Total number of non-empty batch processor ticks",
		},
	)

	BroadcastFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewsync_broadcast_failures_total",
			Help: "Total number of best-effort broadcast deliveries that failed",
		},
	)

	// Retry metrics
	PendingUpdates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewsync_pending_updates",
			Help: "Number of failed sync events awaiting retry",
		},
	)

	RetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewsync_retries_total",
			Help: "Total number of pending update retry attempts",
		},
	)

	RetryPurges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewsync_retry_purges_total",
			Help: "Total number of pending updates dropped as unrecoverable",
		},
	)

	// Connection metrics
	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewsync_connected_clients",
			Help: "Number of registered downstream consumers",
		},
	)

	StaleConnectionsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crewsync_stale_connections_purged_total",
			Help: "Total number of idle consumer connections removed by the health monitor",
		},
	)

	// Health metrics
	SyncLagSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewsync_sync_lag_seconds",
			Help: "Seconds since the last completed sync event",
		},
	)

	ErrorRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewsync_error_rate",
			Help: "Ratio of failed syncs to total processed events",
		},
	)

	ForceSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewsync_force_syncs_total",
			Help: "Total number of forced synchronizations by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(EventsDeduplicated)
	prometheus.MustRegister(EventsDropped)
	prometheus.MustRegister(EventsProcessed)
	prometheus.MustRegister(ProcessingDuration)
	prometheus.MustRegister(BatchesProcessed)
	prometheus.MustRegister(BroadcastFailures)
	prometheus.MustRegister(PendingUpdates)
	prometheus.MustRegister(RetriesTotal)
	prometheus.MustRegister(RetryPurges)
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(StaleConnectionsPurged)
	prometheus.MustRegister(SyncLagSeconds)
	prometheus.MustRegister(ErrorRate)
	prometheus.MustRegister(ForceSyncsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
