// ABOUTME: Read-only REST endpoints serving the archived session history
// ABOUTME: List newest-first; detail returns the full transcript

package hub

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/2389/support-hub/internal/archive"
)

func (h *Hub) listHistory(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.archive.List(r.Context(), 0)
	if err != nil {
		h.logger.Error("listing history failed", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, summaries)
}

func (h *Hub) getHistory(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["recordID"]

	rec, err := h.archive.Get(r.Context(), recordID)
	if errors.Is(err, archive.ErrNotFound) {
		writeJSONResponse(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
		return
	}
	if err != nil {
		h.logger.Error("fetching history record failed", "record_id", recordID, "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, rec)
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
