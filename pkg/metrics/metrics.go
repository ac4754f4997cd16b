// Package metrics exposes the Prometheus registry of the batch service.
// All metrics are defined in their respective packages (batch, client,
// credential, operation, store, ratelimit) via promauto.
//
// This package provides the scrape handler and a reference for all series.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry every package registers into.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Orchestrator Metrics (pkg/batch):
//   - batch_runs_total (Counter): Orchestrator runs
//   - batch_waves_total (Counter): Waves launched
//   - batch_items_total{status} (Counter): Settled items by outcome (success, failure)
//   - batch_task_panics_total (Counter): Tasks that panicked and were recorded as failures
//   - batch_wave_duration_seconds (Histogram): Time from wave launch to barrier
//   - batch_run_duration_seconds (Histogram): Whole run, inter-wave delays included
//
// Operation Metrics (pkg/operation):
//   - operation_batches_total{operation, result} (Counter): Batches by result (completed, auth_failed)
//   - operation_batch_duration_seconds{operation} (Histogram): Completed batch duration
//
// Credential Metrics (pkg/credential):
//   - credential_acquisitions_total{provider, result} (Counter): Token acquisitions (success, failure)
//
// Partner Request Metrics (pkg/client):
//   - partner_requests_total{partner, method, status} (Counter): Requests by HTTP status
//   - partner_request_duration_seconds{partner, method} (Histogram): Request duration
//   - partner_errors_total{partner, class} (Counter): Errors by class (client, server, rate_limit, network, format)
//
// Report Metrics (pkg/store):
//   - report_store_operations_total{operation, result} (Counter): Store calls
//   - report_store_report_bytes (Histogram): Saved report size
//   - report_archive_uploads_total{result} (Counter): S3 archive uploads
//
// Submission Metrics (pkg/ratelimit):
//   - submissions_throttled_total (Counter): Submissions rejected with 429
//
// Example Prometheus Queries:
//
//   # Item failure ratio
//   sum(rate(batch_items_total{status="failure"}[5m])) / sum(rate(batch_items_total[5m]))
//
//   # Partner answered 429 despite wave pacing
//   sum by (partner) (rate(partner_errors_total{class="rate_limit"}[5m]))
//
//   # P95 wave latency
//   histogram_quantile(0.95, rate(batch_wave_duration_seconds_bucket[5m]))
//
//   # Credential failures
//   rate(credential_acquisitions_total{result="failure"}[15m]) > 0
