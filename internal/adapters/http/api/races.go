package api

import (
	"context"
	"net/http"

	"github.com/okian/harrier/internal/domain/types"
)

// RaceDependencies defines the interface for race scoring.
type RaceDependencies interface {
	ScoreRace(ctx context.Context, raceID string) (types.RaceScoring, error)
}

// RacesHandler handles race reads.
type RacesHandler struct {
	deps RaceDependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps RaceDependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// HandleGetScoring handles GET /races/{id}/scoring.
func (h *RacesHandler) HandleGetScoring(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ScoreRace(r.Context(), pathID(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
