package notes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Handler exposes notes as GET/PUT /api/projects/{id}/notes.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service for mounting under /api/projects/.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseProjectID(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		text, err := h.service.Load(projectID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"projectId": projectID, "notes": text})
	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to read body: %v", err), http.StatusBadRequest)
			return
		}
		var payload struct {
			Notes string `json:"notes"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, fmt.Sprintf("invalid body: %v", err), http.StatusBadRequest)
			return
		}
		if err := h.service.Save(projectID, payload.Notes); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// parseProjectID extracts the id from /api/projects/{id}/notes.
func parseProjectID(path string) (string, bool) {
	trimmed := strings.Trim(strings.TrimPrefix(path, "/api/projects/"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] != "notes" || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}
