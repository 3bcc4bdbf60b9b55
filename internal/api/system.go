package api

import (
	"net/http"
	"time"
)

// healthResponse is the payload for GET /api/v1/health.
type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Devices   int    `json:"devices"`
	Snapshot  int    `json:"snapshot"`
	Timestamp string `json:"timestamp"`
}

// handleHealth reports bridge liveness and basic inventory counts.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   s.version,
		Devices:   s.registry.Count(),
		Snapshot:  len(s.syncer.Snapshot()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSync re-fetches the hardware inventory from the cloud and
// rebuilds the logical device registry.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Sync(r.Context()); err != nil {
		s.logger.Error("inventory sync failed", "error", err)
		s.writeRefreshError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"devices": s.registry.Count(),
	})
}

// handleRefresh forces a status refresh, bypassing the debounce window.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.syncer.Refresh(r.Context())
	if err != nil {
		s.logger.Error("status refresh failed", "error", err)
		s.writeRefreshError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"devices": len(snapshot),
	})
}
