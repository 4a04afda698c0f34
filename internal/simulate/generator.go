package simulate

import (
	"fmt"
	"math/rand"

	"github.com/okian/laneup/internal/domain/model"
)

// Score ranges for generated players.
const (
	mainRoleMin       = 6
	mainRoleRange     = 5 // 6..10
	offRoleMax        = 7
	offRoleChance     = 0.6
	overallMultiplier = 10
)

// generatePlayers creates n players with a strong main role, a few playable
// off-roles and zeros elsewhere. Main roles rotate so that every role has
// candidates once n reaches ten.
func generatePlayers(rng *rand.Rand, n int) []model.Player {
	roles := model.Roles()
	players := make([]model.Player, n)
	for i := range players {
		p := model.Player{Name: fmt.Sprintf("sim-%04d", i+1)}
		main := roles[i%len(roles)]
		p.SetScore(main, mainRoleMin+rng.Intn(mainRoleRange))
		for _, r := range roles {
			if r != main && rng.Float64() < offRoleChance {
				p.SetScore(r, 1+rng.Intn(offRoleMax))
			}
		}
		p.Overall = p.Score(main) * overallMultiplier
		players[i] = p
	}
	return players
}

// planDraws picks the selection, balance flag and winner of every draw.
func planDraws(rng *rand.Rand, cfg *Config, ids []string) []plannedDraw {
	plans := make([]plannedDraw, cfg.NumDraws)
	for i := range plans {
		perm := rng.Perm(len(ids))[:10]
		sel := make([]string, len(perm))
		for j, k := range perm {
			sel[j] = ids[k]
		}
		winner := model.SideTeam1
		if rng.Intn(2) == 1 {
			winner = model.SideTeam2
		}
		plans[i] = plannedDraw{
			index:     i,
			selection: sel,
			balance:   cfg.UnbalancedEvery <= 0 || (i+1)%cfg.UnbalancedEvery != 0,
			winner:    winner,
		}
	}
	return plans
}
