package api

import (
	"context"
	"net/http"

	"github.com/okian/harrier/internal/domain/model"
)

// CatalogDependencies defines the interface for catalog upserts.
type CatalogDependencies interface {
	PutCourse(ctx context.Context, c model.Course) error
	PutMeet(ctx context.Context, m model.Meet) error
	PutRace(ctx context.Context, r model.Race) error
	PutSchool(ctx context.Context, s model.School) error
	PutAthlete(ctx context.Context, a model.Athlete) error
}

// CatalogHandler handles reference data writes.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandlePutCourse handles POST /courses.
func (h *CatalogHandler) HandlePutCourse(w http.ResponseWriter, r *http.Request) {
	var c model.Course
	if err := decode(w, r, &c); err != nil {
		writeFailure(w, err)
		return
	}
	h.stored(w, c.ID, h.deps.PutCourse(r.Context(), c))
}

// HandlePutMeet handles POST /meets.
func (h *CatalogHandler) HandlePutMeet(w http.ResponseWriter, r *http.Request) {
	var req meetRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	m, err := req.model()
	if err != nil {
		writeFailure(w, badRequest(err))
		return
	}
	h.stored(w, m.ID, h.deps.PutMeet(r.Context(), m))
}

// HandlePutRace handles POST /races.
func (h *CatalogHandler) HandlePutRace(w http.ResponseWriter, r *http.Request) {
	var req raceRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	race, err := req.model()
	if err != nil {
		writeFailure(w, badRequest(err))
		return
	}
	h.stored(w, race.ID, h.deps.PutRace(r.Context(), race))
}

// HandlePutSchool handles POST /schools.
func (h *CatalogHandler) HandlePutSchool(w http.ResponseWriter, r *http.Request) {
	var s model.School
	if err := decode(w, r, &s); err != nil {
		writeFailure(w, err)
		return
	}
	h.stored(w, s.ID, h.deps.PutSchool(r.Context(), s))
}

// HandlePutAthlete handles POST /athletes.
func (h *CatalogHandler) HandlePutAthlete(w http.ResponseWriter, r *http.Request) {
	var req athleteRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	a, err := req.model()
	if err != nil {
		writeFailure(w, badRequest(err))
		return
	}
	h.stored(w, a.ID, h.deps.PutAthlete(r.Context(), a))
}

func (h *CatalogHandler) stored(w http.ResponseWriter, id string, err error) {
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "stored", ID: id})
}
