package teamsplit

import (
	"errors"
	"fmt"

	"github.com/okian/laneup/internal/domain/model"
)

// Sentinel kinds for team split errors. These allow errors.Is/As from callers.
var (
	ErrWrongSelectionSize         = errors.New("selection must contain exactly ten distinct players")
	ErrInsufficientRoleCandidates = errors.New("insufficient role candidates")
	ErrInvalidResult              = errors.New("invalid team split")
)

// Reason codes reported to callers alongside a failed split.
const (
	ReasonWrongSelectionSize         = "wrong_selection_size"
	ReasonInsufficientRoleCandidates = "insufficient_role_candidates"
	ReasonInvalidResult              = "invalid_result"
)

// RoleCandidatesError reports the role that could not be filled on both teams.
type RoleCandidatesError struct {
	Role       model.Role
	Candidates int
}

func (e *RoleCandidatesError) Error() string {
	return fmt.Sprintf("%s: role %s has %d eligible players, need 2", ErrInsufficientRoleCandidates, e.Role, e.Candidates)
}

// Is makes errors.Is(err, ErrInsufficientRoleCandidates) hold.
func (e *RoleCandidatesError) Is(target error) bool {
	return target == ErrInsufficientRoleCandidates
}

// Reason maps an error from this package to its reason code, or "" when the
// error did not originate here.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWrongSelectionSize):
		return ReasonWrongSelectionSize
	case errors.Is(err, ErrInsufficientRoleCandidates):
		return ReasonInsufficientRoleCandidates
	case errors.Is(err, ErrInvalidResult):
		return ReasonInvalidResult
	}
	return ""
}

type selectionError struct {
	got       int
	distinct  int
	duplicate string
}

func (e *selectionError) Error() string {
	if e.duplicate != "" {
		return fmt.Sprintf("%s: player %s selected more than once", ErrWrongSelectionSize, e.duplicate)
	}
	return fmt.Sprintf("%s: got %d players (%d distinct)", ErrWrongSelectionSize, e.got, e.distinct)
}

func (e *selectionError) Is(target error) bool {
	return target == ErrWrongSelectionSize
}
