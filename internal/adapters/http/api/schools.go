package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/records"
	"github.com/okian/harrier/internal/domain/types"
)

const defaultLimit = 10

// SchoolDependencies defines the interface for school and league reads.
type SchoolDependencies interface {
	SchoolRecords(ctx context.Context, schoolID string, gender model.Gender) (types.RecordSet, error)
	TeamBests(ctx context.Context, schoolID, courseID string, n int) ([]types.TeamPerformance, error)
	TopN(ctx context.Context, schoolID string, gender model.Gender, n int, mode records.Mode) ([]types.LeaderboardEntry, []types.UnscoredResult, error)
}

// SchoolsHandler handles school record requests.
type SchoolsHandler struct {
	deps SchoolDependencies
}

// NewSchoolsHandler creates a new schools handler.
func NewSchoolsHandler(deps SchoolDependencies) *SchoolsHandler {
	return &SchoolsHandler{deps: deps}
}

type topResponse struct {
	Mode    string                   `json:"mode"`
	Top     []types.LeaderboardEntry `json:"top"`
	Skipped []types.UnscoredResult   `json:"skipped"`
}

// HandleGetRecords handles GET /schools/{id}/records?gender=.
func (h *SchoolsHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	gender, err := genderParam(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	set, err := h.deps.SchoolRecords(r.Context(), pathID(r), gender)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// HandleGetTeamBests handles GET /schools/{id}/team-bests?course=&limit=.
func (h *SchoolsHandler) HandleGetTeamBests(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")
	if course == "" {
		writeFailure(w, badRequest(errors.New("missing course")))
		return
	}
	n, err := limitParam(r, defaultLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	teams, err := h.deps.TeamBests(r.Context(), pathID(r), course, n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleGetTop handles GET /schools/{id}/top and GET /top. The mode query
// parameter is required: all or best-per-athlete.
func (h *SchoolsHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	gender, err := genderParam(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	mode, err := records.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeFailure(w, badRequest(err))
		return
	}
	n, err := limitParam(r, defaultLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	top, skipped, err := h.deps.TopN(r.Context(), pathID(r), gender, n, mode)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if skipped == nil {
		skipped = []types.UnscoredResult{}
	}
	writeJSON(w, http.StatusOK, topResponse{Mode: mode.String(), Top: top, Skipped: skipped})
}
