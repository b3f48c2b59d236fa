package web

import (
	"net/http"

	"github.com/JonMunkholm/linequery/internal/history"
)

// historyResponse is the body of GET /api/history.
type historyResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// handleHistory lists recent queries, newest first.
//
// GET /api/history?limit=50
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "query history is not enabled",
			Message: "Query history is not enabled",
			Action:  "Set DATABASE_URL to record queries",
			Code:    "HIST001",
		})
		return
	}

	limit := parseIntParam(r, "limit", history.DefaultRecentLimit)
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	writeJSON(w, http.StatusOK, historyResponse{Entries: entries, Count: len(entries)})
}
