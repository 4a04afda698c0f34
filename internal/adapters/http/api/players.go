package api

import (
	"context"
	"net/http"

	"github.com/okian/laneup/internal/adapters/repository"
	"github.com/okian/laneup/internal/domain/model"
)

// PlayerDependencies defines the roster operations the player routes need.
type PlayerDependencies interface {
	ListPlayers(ctx context.Context) ([]model.Player, error)
	GetPlayer(ctx context.Context, id string) (model.Player, error)
	CreatePlayer(ctx context.Context, p model.Player) (model.Player, error)
	UpdatePlayer(ctx context.Context, id string, patch repository.Patch) (model.Player, error)
	DeletePlayer(ctx context.Context, id string) error
}

// PlayersHandler handles roster CRUD requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// playerRequest mirrors the OpenAPI schema for creating a player; the id is
// always assigned by the server.
type playerRequest struct {
	Name    string `json:"name"`
	Overall int    `json:"overall"`
	Top     int    `json:"top"`
	Jungle  int    `json:"jungle"`
	Mid     int    `json:"mid"`
	ADC     int    `json:"adc"`
	Support int    `json:"support"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// HandleList handles GET /api/players.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.ListPlayers(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if players == nil {
		players = []model.Player{}
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleCreate handles POST /api/players.
func (h *PlayersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	p, err := h.deps.CreatePlayer(r.Context(), model.Player{
		Name:    req.Name,
		Overall: req.Overall,
		Top:     req.Top,
		Jungle:  req.Jungle,
		Mid:     req.Mid,
		ADC:     req.ADC,
		Support: req.Support,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGet handles GET /api/players/{id}.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.GetPlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PUT /api/players/{id}. Omitted fields keep their
// stored values.
func (h *PlayersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch repository.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeFailure(w, err)
		return
	}
	p, err := h.deps.UpdatePlayer(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /api/players/{id}.
func (h *PlayersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeletePlayer(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true})
}
