package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/harrier/internal/domain/types"
)

// AthleteDependencies defines the interface for athlete reads.
type AthleteDependencies interface {
	AthleteRecords(ctx context.Context, athleteID string) (types.RecordSet, error)
	Improvement(ctx context.Context, athleteID string, cutoff time.Time) (*types.ImprovementReport, error)
}

// AthletesHandler handles athlete record and trend requests.
type AthletesHandler struct {
	deps AthleteDependencies
}

// NewAthletesHandler creates a new athletes handler.
func NewAthletesHandler(deps AthleteDependencies) *AthletesHandler {
	return &AthletesHandler{deps: deps}
}

// HandleGetRecords handles GET /athletes/{id}/records.
func (h *AthletesHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	set, err := h.deps.AthleteRecords(r.Context(), pathID(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// HandleGetImprovement handles GET /athletes/{id}/improvement?cutoff=.
// An athlete without results on both sides of the cutoff gets 422, never
// a zero improvement.
func (h *AthletesHandler) HandleGetImprovement(w http.ResponseWriter, r *http.Request) {
	cutoff, err := cutoffParam(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	report, err := h.deps.Improvement(r.Context(), pathID(r), cutoff)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
