package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adinsights_sync_rows_total",
		Help: "Fact rows written during sync, by store, source and outcome.",
	}, []string{"store", "source", "outcome"})

	adapterErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adinsights_sync_adapter_errors_total",
		Help: "Adapter failures during sync, by source and error kind.",
	}, []string{"source", "kind"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adinsights_sync_duration_seconds",
		Help:    "Wall-clock duration of one per-store sync.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"store"})
)
