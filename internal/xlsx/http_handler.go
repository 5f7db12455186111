package xlsx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// UpdateRequest is the POST /api/sheets/update body.
type UpdateRequest struct {
	FilePath  string       `json:"filePath"`
	SheetName string       `json:"sheetName"`
	Updates   []CellUpdate `json:"updates"`
}

// UpdateHandler applies cell write-backs to a workbook sheet.
type UpdateHandler struct{}

// NewUpdateHandler returns the sheet update endpoint.
func NewUpdateHandler() http.Handler {
	return &UpdateHandler{}
}

func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.FilePath) == "" || strings.TrimSpace(req.SheetName) == "" {
		http.Error(w, "filePath and sheetName are required", http.StatusBadRequest)
		return
	}
	if len(req.Updates) == 0 {
		http.Error(w, "no updates supplied", http.StatusBadRequest)
		return
	}

	if err := ApplyCellUpdates(req.FilePath, req.SheetName, req.Updates); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
