package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for orchestrator runs.
var (
	batchRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_runs_total",
		Help: "Total orchestrator runs",
	})

	batchWavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_waves_total",
		Help: "Total waves launched by the orchestrator",
	})

	batchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_items_total",
		Help: "Total settled items by outcome status",
	}, []string{"status"})

	batchPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "batch_task_panics_total",
		Help: "Total tasks that panicked and were recorded as failures",
	})

	batchWaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "batch_wave_duration_seconds",
		Help:    "Wall-clock time from wave launch to the last settled item",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	batchRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "batch_run_duration_seconds",
		Help:    "Wall-clock time of a whole orchestrator run including delays",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	})
)
