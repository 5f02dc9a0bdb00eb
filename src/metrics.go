package samealert

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters.  Registered on the default registry; cmd decides
// whether to expose them over HTTP.
var (
	metricBurstsSeen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_bursts_total",
		Help: "Burst candidates captured by the frame synchronizer.",
	})
	metricReconcileFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_reconcile_failures_total",
		Help: "Burst batches that could not be reconciled into a header.",
	})
	metricParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_parse_failures_total",
		Help: "Reconciled headers rejected by the SAME grammar.",
	})
	metricAlertsRouted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_alerts_routed_total",
		Help: "Alerts accepted for forwarding to the mesh.",
	})
	metricAlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_alerts_suppressed_total",
		Help: "Alerts dropped as duplicates or unrouted tests.",
	})
	metricAlertsForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_alerts_forwarded_total",
		Help: "Alerts delivered to the mesh node.",
	})
	metricAlertsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_alerts_failed_total",
		Help: "Alerts that exhausted delivery retries.",
	})
	metricQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "same_forward_queue_depth",
		Help: "Alerts waiting in the forwarder queue.",
	})
	metricQueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_forward_queue_dropped_total",
		Help: "Alerts dropped from a full forwarder queue.",
	})
	metricReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "same_mesh_reconnects_total",
		Help: "Reconnection attempts to the mesh node.",
	})
)
