package api

import "net/http"

func (s *Server) handleSearchStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"search":      s.lib.Stats(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
