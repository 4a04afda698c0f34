package api

import (
	"errors"
	"net/http"

	"github.com/okian/laneup/internal/adapters/repository"
	service "github.com/okian/laneup/internal/app"
	"github.com/okian/laneup/internal/domain/teamsplit"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Error codes returned in the error body.
const (
	codeBadRequest    = "bad_request"
	codeInvalidPlayer = "invalid_player"
	codeNotFound      = "not_found"
	codeDrawNotFound  = "draw_not_found"
	codeBackpressure  = "backpressure"
	codeUnavailable   = "unavailable"
	codeInternal      = "internal_error"
)

// classify maps an upstream error to an HTTP status and error code.
func classify(err error) (int, string) {
	if reason := teamsplit.Reason(err); reason != "" {
		if errors.Is(err, teamsplit.ErrInsufficientRoleCandidates) {
			return http.StatusUnprocessableEntity, reason
		}
		return http.StatusBadRequest, reason
	}

	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidWinner):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, repository.ErrInvalidPlayer):
		return http.StatusBadRequest, codeInvalidPlayer
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrDrawNotFound):
		return http.StatusNotFound, codeDrawNotFound
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, service.ErrStopped):
		return http.StatusServiceUnavailable, codeUnavailable
	}
	return http.StatusInternalServerError, codeInternal
}
