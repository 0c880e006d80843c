package httpapi

import (
	"net/http"
	"time"

	"github.com/taskboard/taskboard/internal/dashboard"
)

// handleDashboard dispatches /api/projects/{projectId}/dashboard routes.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, projectID string, rest []string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	window := dashboard.ParseWindow(r.URL.Query().Get("range"))
	now := time.Now().UTC()

	switch {
	case len(rest) == 0:
		stats, err := s.engine.Stats(r.Context(), projectID, now, window)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case len(rest) == 1 && rest[0] == "status-over-time":
		buckets, err := s.engine.StatusOverTime(r.Context(), projectID, now, window)
		if err != nil {
			writeError(w, err)
			return
		}
		if buckets == nil {
			buckets = []dashboard.StatusBucket{}
		}
		writeJSON(w, http.StatusOK, buckets)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}
