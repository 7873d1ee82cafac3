// Package api serves fixtures and standings of the registered competitions over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/Pallas/adapters/leagueapi"
	"github.com/XavierBriggs/Pallas/internal/league"
	"github.com/XavierBriggs/Pallas/internal/registry"
	"github.com/XavierBriggs/Pallas/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Refresher loads fixtures for one competition (implemented by scheduler.Scheduler)
type Refresher interface {
	Refresh(ctx context.Context, key string) ([]models.Match, error)
}

// ArchiveReader lists archived fixtures (implemented by writer.Writer)
type ArchiveReader interface {
	ArchivedFixtures(ctx context.Context, competition string) ([]models.Match, error)
}

// Handler handles HTTP requests for fixtures and standings
type Handler struct {
	registry  *registry.CompetitionRegistry
	refresher Refresher
	archive   ArchiveReader
	logger    *logrus.Logger
}

// CompetitionInfo is one entry of the competition listing
type CompetitionInfo struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Fixtures    int    `json:"fixtures"`
}

// StandingRow is a TeamStanding with its 1-based table position
type StandingRow struct {
	Position int `json:"position"`
	models.TeamStanding
}

// RefreshResponse reports the outcome of a fixture reload
type RefreshResponse struct {
	Competition string `json:"competition"`
	Fixtures    int    `json:"fixtures"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// NewHandler creates a new API handler
func NewHandler(reg *registry.CompetitionRegistry, refresher Refresher, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		registry:  reg,
		refresher: refresher,
		logger:    logger,
	}
}

// WithArchive enables the archive endpoint
func (h *Handler) WithArchive(archive ArchiveReader) *Handler {
	h.archive = archive
	return h
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)
	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	// Registered on the root router: a subrouter reports method mismatches as 404
	const prefix = "/api/v1"
	r.HandleFunc(prefix+"/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc(prefix+"/competitions", h.handleCompetitions).Methods(http.MethodGet)
	r.HandleFunc(prefix+"/competitions/{key}/fixtures", h.handleGetFixtures).Methods(http.MethodGet)
	r.HandleFunc(prefix+"/competitions/{key}/fixtures", h.handleSetFixtures).Methods(http.MethodPut)
	r.HandleFunc(prefix+"/competitions/{key}/standings", h.handleStandings).Methods(http.MethodGet)
	r.HandleFunc(prefix+"/competitions/{key}/refresh", h.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc(prefix+"/competitions/{key}/archive", h.handleArchive).Methods(http.MethodGet)

	return r
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found: " + r.URL.Path})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed: " + r.Method})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"competitions": h.registry.Count(),
	})
}

func (h *Handler) handleCompetitions(w http.ResponseWriter, r *http.Request) {
	services := h.registry.GetAll()
	infos := make([]CompetitionInfo, 0, len(services))
	for _, svc := range services {
		infos = append(infos, CompetitionInfo{
			Key:         svc.Key(),
			DisplayName: svc.DisplayName(),
			Fixtures:    svc.FixtureCount(),
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *Handler) handleGetFixtures(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.competition(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.Fixtures())
}

func (h *Handler) handleSetFixtures(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.competition(w, r)
	if !ok {
		return
	}

	var matches []models.Match
	if err := json.NewDecoder(r.Body).Decode(&matches); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}

	svc.SetFixtures(matches)
	writeJSON(w, http.StatusOK, svc.Fixtures())
}

func (h *Handler) handleStandings(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.competition(w, r)
	if !ok {
		return
	}

	table := svc.Standings()
	rows := make([]StandingRow, len(table))
	for i, standing := range table {
		rows[i] = StandingRow{Position: i + 1, TeamStanding: standing}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.competition(w, r)
	if !ok {
		return
	}
	if h.refresher == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "refresh is not available"})
		return
	}

	matches, err := h.refresher.Refresh(r.Context(), svc.Key())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: err.Error(),
			Kind:  leagueapi.Kind(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		Competition: svc.Key(),
		Fixtures:    len(matches),
	})
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.competition(w, r)
	if !ok {
		return
	}
	if h.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "archive is not configured"})
		return
	}

	matches, err := h.archive.ArchivedFixtures(r.Context(), svc.Key())
	if err != nil {
		h.logger.WithError(err).WithField("competition", svc.Key()).Error("read fixture archive failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "read archive failed"})
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// competition resolves {key} or writes a 404
func (h *Handler) competition(w http.ResponseWriter, r *http.Request) (*league.Service, bool) {
	key := mux.Vars(r)["key"]
	svc, ok := h.registry.Get(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown competition: " + key})
		return nil, false
	}
	return svc, true
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
