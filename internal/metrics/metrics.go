// Package metrics declares the aggregator's Prometheus instrumentation.
// Every counter and gauge here is registered against the default
// registry at package init through promauto rather than a hand-rolled
// registration helper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SelectsTotal counts Select RPCs received from the coordinator.
var SelectsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aggregator_selects_total",
	Help: "Total number of Select RPCs processed.",
})

// UploadsTotal counts client uploads accepted onto the service queue,
// regardless of whether the aggregator ultimately ingests them.
var UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "aggregator_uploads_accepted_total",
	Help: "Total number of client uploads accepted onto the service queue.",
})

// UploadOutcomesTotal counts upload outcomes by result: "rejected"
// (unauthorized credentials, dropped silently before AddWeights is
// called), or, once AddWeights has completed, "ingested" or "failed"
// (aggregator returned an error).
var UploadOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aggregator_upload_outcomes_total",
	Help: "Total number of upload ingestion outcomes, labeled by result.",
}, []string{"result"})

// DownloadsTotal counts model downloads, labeled "accepted" or
// "rejected".
var DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aggregator_downloads_total",
	Help: "Total number of model download attempts, labeled by result.",
}, []string{"result"})

// AggregationsTotal counts completed aggregation rounds, labeled
// "success" or "failure".
var AggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aggregator_aggregations_total",
	Help: "Total number of completed aggregation rounds, labeled by result.",
}, []string{"result"})

// CredentialsTableSize reports the number of clients currently selected
// for the in-progress round.
var CredentialsTableSize = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "aggregator_credentials_table_size",
	Help: "Number of clients currently authorized for the in-progress round.",
})

// AggregationInFlight reports 1 while an aggregation is running, 0
// otherwise, mirroring the at-most-one in-flight aggregation invariant.
var AggregationInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "aggregator_aggregation_in_flight",
	Help: "1 while an aggregation computation is in flight, 0 otherwise.",
})
