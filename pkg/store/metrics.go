package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations tracks store calls by operation and result.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_store_operations_total",
			Help: "Total report store operations",
		},
		[]string{"operation", "result"}, // "save", "get", "delete" / "ok", "miss", "error"
	)

	// StoredBytes tracks the size of the last saved report.
	StoredBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_store_report_bytes",
			Help:    "Size of saved reports in bytes",
			Buckets: prometheus.ExponentialBuckets(512, 4, 8),
		},
	)

	// ArchiveUploads tracks archive uploads by result.
	ArchiveUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_archive_uploads_total",
			Help: "Total report archive uploads",
		},
		[]string{"result"}, // "ok", "error"
	)
)
