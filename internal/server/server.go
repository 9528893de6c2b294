// Package server exposes stored runs over a read-only HTTP API.
//
//	GET /health
//	GET /runs?limit=N
//	GET /runs/{runID}
//	GET /runs/{runID}/records?format=csv|json
//	GET /metrics
//
// Errors are JSON bodies of the form {"error": {"code": ..., "message": ...}}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/shelterpair/internal/output"
	"github.com/roach88/shelterpair/internal/record"
	"github.com/roach88/shelterpair/internal/store"
)

// RunReader is the read side of the run store.
type RunReader interface {
	GetRun(ctx context.Context, id string) (store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	ReadRecords(ctx context.Context, runID string) ([]record.PairedRecord, error)
}

// Options configures the router. Metrics and Logger are optional.
type Options struct {
	Runs    RunReader
	Metrics http.Handler
	Logger  *slog.Logger
}

// DefaultListLimit caps /runs when no limit is given.
const DefaultListLimit = 50

// NewRouter builds the API handler.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	h := &handlers{runs: opts.Runs, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/runs", func(rr chi.Router) {
		rr.Get("/", h.listRuns)
		rr.Get("/{runID}", h.getRun)
		rr.Get("/{runID}/records", h.getRecords)
	})

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "read-only API")
	})
	return r
}

// NewHTTPServer wraps handler with the timeouts used for serving.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

type handlers struct {
	runs RunReader
	log  *slog.Logger
}

type listRunsResponse struct {
	Runs []store.Run `json:"runs"`
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listRunsResponse{Runs: runs})
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handlers) getRecords(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	var contentType string
	switch format {
	case "", "csv":
		format, contentType = output.FormatCSV, "text/csv; charset=utf-8"
	case "json", "ndjson":
		format, contentType = output.FormatNDJSON, "application/x-ndjson"
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "format must be csv or json")
		return
	}

	records, err := h.runs.ReadRecords(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	sink, err := output.New(w, format)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if err := sink.Write(r.Context(), records); err != nil {
		h.log.Warn("records write failed", "run_id", chi.URLParam(r, "runID"), "error", err)
		return
	}
	if err := sink.Close(); err != nil {
		h.log.Warn("records flush failed", "run_id", chi.URLParam(r, "runID"), "error", err)
	}
}

func (h *handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "run "+chi.URLParam(r, "runID")+" not found")
		return
	}
	h.internal(w, r, err)
}

func (h *handlers) internal(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed",
		"path", r.URL.Path,
		"request_id", chimw.GetReqID(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
