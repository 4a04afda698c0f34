package teamsplit

import "github.com/okian/laneup/internal/domain/model"

// Swap records one accepted same-role exchange.
type Swap struct {
	Role model.Role `json:"role"`
	// FromA moved from team A to team B, FromB the other way.
	FromA      string `json:"from_a"`
	FromB      string `json:"from_b"`
	DiffBefore int    `json:"diff_before"`
	DiffAfter  int    `json:"diff_after"`
}

// Report describes what the optimizer did. It does not affect the result.
type Report struct {
	InitialDiff int    `json:"initial_diff"`
	FinalDiff   int    `json:"final_diff"`
	Swaps       []Swap `json:"swaps,omitempty"`
	// Threshold is the first ladder rung the final diff satisfies, 0 if none.
	Threshold int `json:"threshold"`
	// Reached is false when the diff stayed above every rung.
	Reached bool `json:"reached"`
}

// Diff is the absolute difference between the two teams' sums.
func Diff(a, b model.Team) int {
	d := a.Sum() - b.Sum()
	if d < 0 {
		return -d
	}
	return d
}

// Balance walks the threshold ladder, greedily applying the first same-role
// swap that strictly lowers the diff, until a rung is met or a full pass over
// the swap priority finds nothing. The inputs are not modified.
func Balance(teamA, teamB model.Team, policy Policy) (model.Team, model.Team, Report) {
	a, b := teamA.Clone(), teamB.Clone()
	diff := Diff(a, b)
	rep := Report{InitialDiff: diff}

	for _, threshold := range policy.Thresholds {
		improved := true
		for diff > threshold && improved {
			improved = false
			for _, role := range policy.SwapPriority {
				if trySwapRole(a, b, role, threshold, &diff, &rep) {
					improved = true
				}
				if diff <= threshold {
					break
				}
			}
		}
		if diff <= threshold {
			rep.Threshold = threshold
			rep.Reached = true
			break
		}
	}

	rep.FinalDiff = diff
	return a, b, rep
}

// trySwapRole exchanges same-role pairs in place whenever the exchange
// strictly lowers *diff, and reports whether any exchange was kept.
func trySwapRole(a, b model.Team, role model.Role, threshold int, diff *int, rep *Report) bool {
	changed := false
	for i := range a {
		if a[i].Role != role {
			continue
		}
		for j := range b {
			if b[j].Role != role {
				continue
			}
			a[i], b[j] = b[j], a[i]
			next := Diff(a, b)
			if next < *diff {
				rep.Swaps = append(rep.Swaps, Swap{
					Role:       role,
					FromA:      b[j].PlayerID,
					FromB:      a[i].PlayerID,
					DiffBefore: *diff,
					DiffAfter:  next,
				})
				*diff = next
				changed = true
			} else {
				a[i], b[j] = b[j], a[i]
			}
			if *diff <= threshold {
				return true
			}
		}
	}
	return changed
}
