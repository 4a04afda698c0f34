// Package teamsplit splits ten players into two role-complete 5v5 teams and
// balances the teams' total scores with a bounded same-role swap search.
package teamsplit

import (
	"sort"

	"github.com/samber/lo"

	"github.com/okian/laneup/internal/domain/model"
)

// Coin decides which team receives the stronger of two candidates.
// *rand.Rand satisfies it.
type Coin interface {
	Float64() float64
}

// CheckSelection rejects anything other than exactly ten distinct players.
func CheckSelection(players []model.Player) error {
	if len(players) != SelectionSize {
		return &selectionError{got: len(players), distinct: len(distinctIDs(players))}
	}
	if dups := lo.FindDuplicatesBy(players, func(p model.Player) string { return p.ID }); len(dups) > 0 {
		return &selectionError{got: len(players), distinct: len(distinctIDs(players)), duplicate: dups[0].ID}
	}
	return nil
}

func distinctIDs(players []model.Player) []string {
	return lo.Uniq(lo.Map(players, func(p model.Player, _ int) string { return p.ID }))
}

// Assign fills every role in order with the two strongest unused players
// holding a positive score for it, one per team. The coin decides which team
// receives the stronger player. On failure no partial teams are returned.
//
// Candidates with equal scores keep their selection order.
func Assign(players []model.Player, coin Coin, order []model.Role) (model.Team, model.Team, error) {
	used := make(map[string]struct{}, len(players))
	teamA := make(model.Team, 0, len(order))
	teamB := make(model.Team, 0, len(order))

	for _, role := range order {
		candidates := lo.Filter(players, func(p model.Player, _ int) bool {
			_, taken := used[p.ID]
			return !taken && p.Score(role) > 0
		})
		if len(candidates) < 2 {
			return nil, nil, &RoleCandidatesError{Role: role, Candidates: len(candidates)}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score(role) > candidates[j].Score(role)
		})

		high, low := candidates[0], candidates[1]
		if coin.Float64() < 0.5 {
			teamA = append(teamA, model.Assign(high, role))
			teamB = append(teamB, model.Assign(low, role))
		} else {
			teamA = append(teamA, model.Assign(low, role))
			teamB = append(teamB, model.Assign(high, role))
		}
		used[high.ID] = struct{}{}
		used[low.ID] = struct{}{}
	}
	return teamA, teamB, nil
}
