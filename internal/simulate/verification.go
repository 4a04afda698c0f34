package simulate

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/internal/domain/teamsplit"
)

// verifyDraw checks a returned draw against the selection it was made from.
// Balanced draws must satisfy every split invariant; all draws must hold the
// selection exactly once and report consistent sums.
func verifyDraw(d model.Draw, selection []string) error {
	if d.MatchID == "" {
		return fmt.Errorf("draw has no match id")
	}
	if d.Sum1 != d.Team1.Sum() || d.Sum2 != d.Team2.Sum() {
		return fmt.Errorf("draw %s: sums %d/%d do not match its teams", d.MatchID, d.Sum1, d.Sum2)
	}
	if d.Diff != teamsplit.Diff(d.Team1, d.Team2) {
		return fmt.Errorf("draw %s: diff %d does not match its teams", d.MatchID, d.Diff)
	}

	stubs := lo.Map(selection, func(id string, _ int) model.Player { return model.Player{ID: id} })
	if d.Mode == model.ModeBalanced {
		if err := teamsplit.Validate(d.Team1, d.Team2, stubs); err != nil {
			return fmt.Errorf("draw %s: %w", d.MatchID, err)
		}
		return nil
	}

	ids := append(d.Team1.IDs(), d.Team2.IDs()...)
	if missing, extra := lo.Difference(selection, ids); len(missing) > 0 || len(extra) > 0 || len(ids) != len(selection) {
		return fmt.Errorf("draw %s: teams do not hold the selection exactly once", d.MatchID)
	}
	return nil
}

// verifyRoster checks that every stored score stays within range after the
// results were applied.
func verifyRoster(players []model.Player, maxScore int) error {
	for _, p := range players {
		for _, r := range model.Roles() {
			if v := p.Score(r); v < 0 || v > maxScore {
				return fmt.Errorf("player %s has %s score %d outside 0..%d", p.ID, r, v, maxScore)
			}
		}
	}
	return nil
}
