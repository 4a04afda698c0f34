package teamsplit

import (
	"slices"

	"github.com/okian/laneup/internal/domain/model"
)

// SelectionSize is the number of players a draw consumes (two teams of five).
const SelectionSize = 10

// TeamSize is the number of players per team, one per role.
const TeamSize = 5

// Policy holds the fixed search constants of a split.
type Policy struct {
	// AssignOrder is the order in which roles are filled.
	AssignOrder []model.Role
	// SwapPriority is the order in which same-role swaps are attempted.
	SwapPriority []model.Role
	// Thresholds is the ascending diff ladder the optimizer tries to reach.
	Thresholds []int
}

// DefaultPolicy returns the standard role orders and the [3, 5, 7] ladder.
func DefaultPolicy() Policy {
	return Policy{
		AssignOrder:  model.Roles(),
		SwapPriority: []model.Role{model.RoleADC, model.RoleSupport, model.RoleTop, model.RoleJungle, model.RoleMid},
		Thresholds:   []int{3, 5, 7},
	}
}

// WithThresholds returns a copy of p using the given ladder. Negative
// entries are dropped and the rest sorted ascending; an empty result keeps
// p's ladder.
func (p Policy) WithThresholds(ladder []int) Policy {
	clean := make([]int, 0, len(ladder))
	for _, t := range ladder {
		if t >= 0 {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return p
	}
	slices.Sort(clean)
	p.Thresholds = slices.Compact(clean)
	return p
}
