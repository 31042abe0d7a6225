// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/harrier/internal/adapters/repository"
	service "github.com/okian/harrier/internal/app"
	"github.com/okian/harrier/internal/domain/dedupe"
	"github.com/okian/harrier/internal/domain/model"
	"github.com/okian/harrier/internal/domain/normalize"
	"github.com/okian/harrier/internal/domain/records"
	"github.com/okian/harrier/internal/domain/scoring"
	"github.com/okian/harrier/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	ResultDependencies
	RaceDependencies
	AthleteDependencies
	SchoolDependencies
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by live leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	catalogHandler     *CatalogHandler
	resultsHandler     *ResultsHandler
	racesHandler       *RacesHandler
	athletesHandler    *AthletesHandler
	schoolsHandler     *SchoolsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		catalogHandler:     NewCatalogHandler(deps),
		resultsHandler:     NewResultsHandler(deps),
		racesHandler:       NewRacesHandler(deps),
		athletesHandler:    NewAthletesHandler(deps),
		schoolsHandler:     NewSchoolsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	get := func(path, endpoint string, h http.HandlerFunc) {
		r.HandleFunc(path, MetricsMiddleware(h, endpoint)).Methods(http.MethodGet)
	}
	post := func(path, endpoint string, h http.HandlerFunc) {
		r.HandleFunc(path, MetricsMiddleware(h, endpoint)).Methods(http.MethodPost)
	}

	get("/healthz", "healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler()).Methods(http.MethodGet)
	get("/stats", "stats", s.statsHandler.HandleStats)

	post("/courses", "courses", s.catalogHandler.HandlePutCourse)
	post("/meets", "meets", s.catalogHandler.HandlePutMeet)
	post("/races", "races", s.catalogHandler.HandlePutRace)
	post("/schools", "schools", s.catalogHandler.HandlePutSchool)
	post("/athletes", "athletes", s.catalogHandler.HandlePutAthlete)
	post("/results", "results", s.resultsHandler.HandlePostResult)

	get("/races/{id}/scoring", "race_scoring", s.racesHandler.HandleGetScoring)
	get("/athletes/{id}/records", "athlete_records", s.athletesHandler.HandleGetRecords)
	get("/athletes/{id}/improvement", "athlete_improvement", s.athletesHandler.HandleGetImprovement)
	get("/athletes/{id}/rank", "rank", s.rankHandler.HandleGetRank)
	get("/schools/{id}/records", "school_records", s.schoolsHandler.HandleGetRecords)
	get("/schools/{id}/team-bests", "school_team_bests", s.schoolsHandler.HandleGetTeamBests)
	get("/schools/{id}/top", "school_top", s.schoolsHandler.HandleGetTop)
	get("/top", "top", s.schoolsHandler.HandleGetTop)
	get("/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	get("/movers", "movers", s.leaderboardHandler.HandleGetMovers)
}

type ackResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an upstream error onto its status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, model.ErrInvalidGender),
		errors.Is(err, model.ErrInvalidResult),
		errors.Is(err, normalize.ErrBadClock),
		errors.Is(err, records.ErrInvalidMode):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, dedupe.ErrDuplicateResult):
		return http.StatusConflict, "duplicate_result"
	case errors.Is(err, model.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient_data"
	case errors.Is(err, scoring.ErrMixedRaces):
		return http.StatusUnprocessableEntity, "mixed_races"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
