// Package randomsplit produces the best-effort team splits used when role
// balancing is switched off or cannot be satisfied. None of the balanced
// draw's guarantees hold here: roles may repeat and scores may be zero.
package randomsplit

import (
	"github.com/okian/laneup/internal/domain/model"
)

// Rand is the random source both splits draw from. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

func shuffled(players []model.Player, rng Rand) []model.Player {
	out := make([]model.Player, len(players))
	copy(out, players)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Unbalanced shuffles the players and cuts the list in half. Each player gets
// a uniformly random role among those they score above zero in, or no role
// and a zero score when they have none.
func Unbalanced(players []model.Player, rng Rand) (model.Team, model.Team) {
	order := shuffled(players, rng)
	half := (len(order) + 1) / 2

	pick := func(p model.Player) model.Assignment {
		roles := p.PlayableRoles()
		if len(roles) == 0 {
			return model.Assignment{PlayerID: p.ID, Name: p.Name}
		}
		return model.Assign(p, roles[rng.Intn(len(roles))])
	}

	team1 := make(model.Team, 0, half)
	team2 := make(model.Team, 0, len(order)-half)
	for i, p := range order {
		if i < half {
			team1 = append(team1, pick(p))
		} else {
			team2 = append(team2, pick(p))
		}
	}
	return team1, team2
}

// RoleAware shuffles the players and pairs the i-th with the (i+half)-th.
// Each player takes the first role they score above zero in that their team
// has not used yet, then the first unused role, then top.
func RoleAware(players []model.Player, rng Rand) (model.Team, model.Team) {
	order := shuffled(players, rng)
	half := len(order) / 2

	team1 := make(model.Team, 0, half)
	team2 := make(model.Team, 0, half)
	used1 := make(map[model.Role]bool, half)
	used2 := make(map[model.Role]bool, half)
	for i := 0; i < half; i++ {
		team1 = append(team1, firstFree(order[i], used1))
		team2 = append(team2, firstFree(order[i+half], used2))
	}
	return team1, team2
}

func firstFree(p model.Player, used map[model.Role]bool) model.Assignment {
	role := model.RoleTop
	found := false
	for _, r := range p.PlayableRoles() {
		if !used[r] {
			role, found = r, true
			break
		}
	}
	if !found {
		for _, r := range model.Roles() {
			if !used[r] {
				role = r
				break
			}
		}
	}
	used[role] = true
	return model.Assign(p, role)
}
