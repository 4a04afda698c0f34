package teamsplit

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/okian/laneup/internal/domain/model"
)

// Validate re-checks a split against the selection it came from: five
// members per team, every role once per team, positive assigned scores, and
// the two teams together holding each selected player exactly once.
func Validate(teamA, teamB model.Team, selection []model.Player) error {
	for _, team := range []struct {
		name string
		t    model.Team
	}{{"team A", teamA}, {"team B", teamB}} {
		if err := validateTeam(team.t); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidResult, team.name, err)
		}
	}

	ids := append(teamA.IDs(), teamB.IDs()...)
	if dups := lo.FindDuplicates(ids); len(dups) > 0 {
		return fmt.Errorf("%w: player %s is on both teams", ErrInvalidResult, dups[0])
	}
	want := lo.Map(selection, func(p model.Player, _ int) string { return p.ID })
	if missing, extra := lo.Difference(want, ids); len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("%w: missing %v, unexpected %v", ErrInvalidResult, missing, extra)
	}
	return nil
}

func validateTeam(t model.Team) error {
	if len(t) != TeamSize {
		return fmt.Errorf("has %d members", len(t))
	}
	seen := make(map[model.Role]struct{}, TeamSize)
	for _, a := range t {
		if !a.Role.Valid() {
			return fmt.Errorf("player %s has unknown role %q", a.PlayerID, a.Role)
		}
		if _, dup := seen[a.Role]; dup {
			return fmt.Errorf("role %s assigned twice", a.Role)
		}
		seen[a.Role] = struct{}{}
		if a.Score <= 0 {
			return fmt.Errorf("player %s has non-positive score %d as %s", a.PlayerID, a.Score, a.Role)
		}
	}
	return nil
}
