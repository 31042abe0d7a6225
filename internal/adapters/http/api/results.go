package api

import (
	"context"
	"net/http"

	"github.com/okian/harrier/internal/domain/model"
)

// ResultDependencies defines the interface for result ingestion.
type ResultDependencies interface {
	// SubmitResult queues r and returns its id. It fails with a duplicate
	// error when the (athlete, race) pair was already submitted.
	SubmitResult(ctx context.Context, r model.Result) (string, error)
}

// ResultsHandler handles result submissions.
type ResultsHandler struct {
	deps ResultDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandlePostResult handles POST /results. Accepted results are stored
// asynchronously.
func (h *ResultsHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	res, err := req.model()
	if err != nil {
		writeFailure(w, badRequest(err))
		return
	}
	id, err := h.deps.SubmitResult(r.Context(), res)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: id})
}
