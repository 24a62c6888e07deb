// Package metrics defines and registers all custom Prometheus metrics for the
// fleet telemetry API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// via promauto; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "telemetry"

// IngestedTotal counts readings accepted by the stream.
// Label:
//   - alert: "true" when the reading tripped an alert condition, else "false"
var IngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingested_total",
		Help:      "Total number of telemetry readings published to the stream.",
	},
	[]string{"alert"},
)

// IngestFailuresTotal counts readings that never reached the stream.
// Label:
//   - reason: "validation" (rejected by domain rules) or "publish" (bus failure)
var IngestFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_failures_total",
		Help:      "Total number of telemetry readings that failed ingestion.",
	},
	[]string{"reason"},
)

// BatchItemsTotal counts per-item outcomes of batch ingestion.
// Label:
//   - result: "ingested" or "failed"
var BatchItemsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_items_total",
		Help:      "Total number of batch items, labelled by per-item outcome.",
	},
	[]string{"result"},
)

// StoreWriteFailuresTotal counts detached store writes that failed. The store
// write is fire-and-forget, so this counter (plus the log line) is the only
// place those failures surface.
var StoreWriteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_write_failures_total",
		Help:      "Total number of background telemetry store writes that failed.",
	},
)

// PublishDuration measures the latency of message bus publishes, the only
// blocking step on the ingest hot path.
var PublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "publish_duration_seconds",
		Help:      "Duration of message bus publish calls.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)
