package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/laneup/internal/domain/model"
)

// DrawDependencies defines the draw and result operations.
type DrawDependencies interface {
	Draw(ctx context.Context, ids []string, balance bool) (model.Draw, error)
	PendingDraw(ctx context.Context, matchID string) (model.Draw, error)
	// ReportResult returns duplicate=true when the match was already reported.
	ReportResult(ctx context.Context, matchID string, winner model.Side) (bool, error)
}

// DrawsHandler handles draw and result requests.
type DrawsHandler struct {
	deps DrawDependencies
}

// NewDrawsHandler creates a new draws handler.
func NewDrawsHandler(deps DrawDependencies) *DrawsHandler {
	return &DrawsHandler{deps: deps}
}

// drawRequest mirrors the OpenAPI schema for POST /api/draws. Balance
// defaults to true when omitted.
type drawRequest struct {
	PlayerIDs []string `json:"player_ids"`
	Balance   *bool    `json:"balance"`
}

type resultRequest struct {
	Winner model.Side `json:"winner"`
}

type ackResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
}

// HandleCreate handles POST /api/draws.
func (h *DrawsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if len(req.PlayerIDs) == 0 {
		writeFailure(w, fmt.Errorf("%w: missing player_ids", ErrBadRequest))
		return
	}
	balance := req.Balance == nil || *req.Balance

	d, err := h.deps.Draw(r.Context(), req.PlayerIDs, balance)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// HandleGet handles GET /api/draws/{id} for draws still awaiting a result.
func (h *DrawsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.PendingDraw(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleResult handles POST /api/draws/{id}/result. The result is applied
// asynchronously; 202 means it was queued, 200 that it had already been
// reported.
func (h *DrawsHandler) HandleResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if !req.Winner.Valid() {
		writeFailure(w, fmt.Errorf("%w: winner must be team1 or team2", ErrBadRequest))
		return
	}

	matchID := r.PathValue("id")
	duplicate, err := h.deps.ReportResult(r.Context(), matchID, req.Winner)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", MatchID: matchID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", MatchID: matchID})
}
