package httpapi

import (
	"net/http"
	"time"

	"github.com/antoniostano/rosie/internal/observability"
)

func (s *Server) handleTurnLatency(w http.ResponseWriter, _ *http.Request) {
	if s.latency == nil {
		respondJSON(w, http.StatusOK, observability.TurnStageSnapshot{
			GeneratedAt: time.Now().UTC(),
			Stages:      []observability.TurnStageStats{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.latency.Snapshot())
}
