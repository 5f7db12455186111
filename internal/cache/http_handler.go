package cache

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

// Handler exposes cache diagnostics and invalidation.
type Handler struct {
	store *Store
}

// NewHTTPHandler wraps the store for mounting under /api/cache/.
func NewHTTPHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Info handles GET /api/cache/info?type=.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	info, err := h.store.Info(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, info)
}

// Invalidate handles POST /api/cache/invalidate?type=. An empty type clears
// every entry.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.store.Invalidate(r.Context(), r.URL.Query().Get("type")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/cache/history?type=&limit=.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.store.History(r.Context(), r.URL.Query().Get("type"), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}
