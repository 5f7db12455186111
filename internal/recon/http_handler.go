package recon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/cshaw/projrecon/internal/cache"
)

// CacheTypePipeline keys the cached reconciliation result.
const CacheTypePipeline = "pipeline_data"

// Handler exposes the reconciliation pipeline over HTTP.
type Handler struct {
	pipeline    *Pipeline
	coordinator *Coordinator
	store       *cache.Store
}

// NewHTTPHandler wires the reconcile endpoints.
func NewHTTPHandler(pipeline *Pipeline, coordinator *Coordinator, store *cache.Store) *Handler {
	return &Handler{pipeline: pipeline, coordinator: coordinator, store: store}
}

// ReconcileRequest is the POST /api/reconcile body.
type ReconcileRequest struct {
	Paths
	Force bool `json:"force,omitempty"`
}

// ReconcileResponse wraps a pipeline result with its provenance.
type ReconcileResponse struct {
	*Result
	Cached bool   `json:"cached"`
	Status string `json:"status"`
}

// Reconcile handles POST /api/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Transactions) == "" && strings.TrimSpace(req.Estimates) == "" && strings.TrimSpace(req.Projects) == "" {
		http.Error(w, "at least one source path is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if !req.Force {
		var cached Result
		if ok, err := h.store.Load(ctx, CacheTypePipeline, &cached); err == nil && ok {
			writeJSON(w, http.StatusOK, ReconcileResponse{Result: &cached, Cached: true, Status: "ok (cached)"})
			return
		}
	}

	result, err, _ := h.coordinator.Run(ctx, CacheTypePipeline, func(runCtx context.Context) (*Result, error) {
		result, err := h.pipeline.Run(runCtx, req.Paths)
		if err != nil {
			return nil, err
		}
		// The save lives inside the coordinated run so shared callers
		// persist exactly once. A caching failure never fails the
		// request; the in-memory result is still served.
		if saveErr := h.store.Save(runCtx, CacheTypePipeline, result, req.Paths.SourceFiles()); saveErr != nil {
			log.Printf("[PIPELINE] caching reconciliation result failed: %v", saveErr)
			result.Warnings = append(result.Warnings, fmt.Sprintf("result not cached: %v", saveErr))
		}
		return result, nil
	})
	if err != nil {
		if errors.Is(err, ErrAllSourcesMissing) {
			http.Error(w, "reconciliation failed: no source spreadsheets could be loaded", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, fmt.Sprintf("reconciliation failed: %v", err), http.StatusInternalServerError)
		return
	}

	status := "ok"
	if len(result.Warnings) > 0 {
		status = "partial"
	}

	writeJSON(w, http.StatusOK, ReconcileResponse{Result: result, Cached: false, Status: status})
}

// Projects handles GET /api/projects, serving the newest cached result.
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cached Result
	ok, err := h.store.Load(r.Context(), CacheTypePipeline, &cached)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{Result: &cached, Cached: true, Status: "ok (cached)"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}
