package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Sync run metrics
	// ============================================
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_sync_runs_total",
			Help: "Total number of sync runs",
		},
		[]string{"trigger", "result"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_sync_run_duration_seconds",
			Help:    "Sync run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"network"},
	)

	SyncTransfersDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_sync_transfers_detected_total",
			Help: "Distinct transfers detected by sync runs",
		},
		[]string{"network"},
	)

	SyncTransfersInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_sync_transfers_inserted_total",
			Help: "New transfers inserted by sync runs",
		},
		[]string{"network"},
	)

	SyncTransfersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_sync_transfers_skipped_total",
			Help: "Transfers skipped during sync",
		},
		[]string{"network", "reason"},
	)

	SyncCursorBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backend_sync_cursor_block",
			Help: "Last block synced per network",
		},
		[]string{"network"},
	)

	// ============================================
	// Indexer API metrics
	// ============================================
	IndexerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_indexer_requests_total",
			Help: "Total requests to the external indexer API",
		},
		[]string{"network", "direction", "result"},
	)

	IndexerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_indexer_request_duration_seconds",
			Help:    "Indexer API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"network"},
	)

	IndexerEventsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_indexer_events_fetched_total",
			Help: "Raw transfer events fetched from the indexer",
		},
		[]string{"network", "direction"},
	)

	IndexerMalformedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_indexer_malformed_events_total",
			Help: "Events rejected at the fetch boundary",
		},
		[]string{"network"},
	)

	// ============================================
	// Notification metrics
	// ============================================
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_notifications_sent_total",
			Help: "Transfer notifications published",
		},
		[]string{"template"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_notifications_failed_total",
			Help: "Transfer notifications that failed to publish",
		},
		[]string{"template", "error_type"},
	)

	NotificationQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backend_notification_queue_dropped_total",
			Help: "Notifications dropped because the dispatch queue was full",
		},
	)

	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	// ============================================
	// Database metrics
	// ============================================
	DBConnectionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_active",
		Help: "Number of active database connections",
	})

	DBConnectionIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_idle",
		Help: "Number of idle database connections",
	})

	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	// ============================================
	// WebSocket push metrics
	// ============================================
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	WebSocketMessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backend_websocket_messages_sent_total",
		Help: "WebSocket push messages sent",
	})
)
