package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/laneup/internal/adapters/history"
)

// HistoryDependencies defines the match-history read operation.
type HistoryDependencies interface {
	History(ctx context.Context, page, pageSize int) (history.Page, error)
}

// HistoryHandler handles match-history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleList handles GET /api/match-history?page=&page_size=.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeFailure(w, err)
		return
	}
	size, err := queryInt(r, "page_size", 0)
	if err != nil {
		writeFailure(w, err)
		return
	}

	p, err := h.deps.History(r.Context(), page, size)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// queryInt parses a non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, key)
	}
	return v, nil
}
