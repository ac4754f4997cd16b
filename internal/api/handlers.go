// Package api serves batch submissions, stored reports and service health
// over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sternrassler/freight-batch/pkg/operation"
	"github.com/Sternrassler/freight-batch/pkg/report"
	"github.com/Sternrassler/freight-batch/pkg/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds a submission body.
const maxBodyBytes = 10 << 20

// BatchRunner executes named operations.
type BatchRunner interface {
	Run(ctx context.Context, name string, lines []string) (*report.BatchResult, error)
	Operations() []operation.Info
}

// ReportStore returns retained reports.
type ReportStore interface {
	Get(ctx context.Context, id string) (*report.BatchResult, error)
}

// Pinger reports readiness of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies of every route. Reports and Ready may be
// nil, which disables report retrieval and makes /ready always succeed.
type Handlers struct {
	Runner  BatchRunner
	Reports ReportStore
	Ready   Pinger
	Logger  zerolog.Logger
}

// SubmitRequest is the body of a batch submission. Input is raw text split on
// newlines; it is used when InputData is absent.
type SubmitRequest struct {
	Operation string   `json:"operation"`
	InputData []string `json:"inputData"`
	Input     string   `json:"input"`
}

func (s SubmitRequest) lines() []string {
	if len(s.InputData) > 0 || s.Input == "" {
		return s.InputData
	}
	return operation.SplitInput(s.Input)
}

// SubmitBatch handles POST /api/batches.
func (h *Handlers) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.run(w, r, req.Operation, req.lines())
}

// SubmitOperation handles POST /api/{operation}: the selector is part of the
// path and the body carries the input alone.
func (h *Handlers) SubmitOperation(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.run(w, r, chi.URLParam(r, "operation"), req.lines())
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request) (SubmitRequest, bool) {
	var req SubmitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return req, false
	}
	return req, true
}

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, name string, lines []string) {
	// A client that disconnects must not abort a batch half-way.
	ctx := context.WithoutCancel(r.Context())

	result, err := h.Runner.Run(ctx, strings.TrimSpace(name), lines)
	switch {
	case errors.Is(err, operation.ErrMissingOperation),
		errors.Is(err, operation.ErrUnknownOperation),
		errors.Is(err, operation.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.Logger.Error().Err(err).Str("operation", name).Msg("Batch failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// GetBatch handles GET /api/batches/{id}.
func (h *Handlers) GetBatch(w http.ResponseWriter, r *http.Request) {
	result, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportBatch handles GET /api/batches/{id}/export.csv.
func (h *Handlers) ExportBatch(w http.ResponseWriter, r *http.Request) {
	result, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, result); err != nil {
		h.Logger.Error().Err(err).Str("batch_id", result.ID).Msg("CSV export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(result)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (*report.BatchResult, bool) {
	if h.Reports == nil {
		writeError(w, http.StatusNotFound, "report retention is disabled")
		return nil, false
	}
	result, err := h.Reports.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	case err != nil:
		h.Logger.Error().Err(err).Msg("Report lookup failed")
		writeError(w, http.StatusInternalServerError, "report lookup failed")
		return nil, false
	}
	return result, true
}

// ListOperations handles GET /api/operations.
func (h *Handlers) ListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"operations": h.Runner.Operations()})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /ready.
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
