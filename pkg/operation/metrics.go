package operation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "operation_batches_total",
		Help: "Total submitted batches by operation and result",
	}, []string{"operation", "result"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "operation_batch_duration_seconds",
		Help:    "Wall-clock duration of completed batches, credential acquisition included",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"operation"})
)
