package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/types"
)

// LeaderboardDependencies defines the interface for live board and movers reads.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, gender model.Gender, n int) ([]Entry, error)
	Movers(ctx context.Context, cutoff time.Time, limit int) (types.Movers, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard?gender=&limit=N requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	gender, err := genderParam(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), gender, n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetMovers handles GET /movers?cutoff=&limit= requests. Without a
// limit the service default applies.
func (h *LeaderboardHandler) HandleGetMovers(w http.ResponseWriter, r *http.Request) {
	cutoff, err := cutoffParam(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	n, err := limitParam(r, 0)
	if err != nil {
		writeFailure(w, err)
		return
	}
	movers, err := h.deps.Movers(r.Context(), cutoff, n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movers)
}
