// Package rating adjusts role scores after a match result.
package rating

import (
	"github.com/okian/laneup/internal/domain/model"
)

// Default clamp bounds for post-match scores.
const (
	DefaultMin = 1
	DefaultMax = 10
)

// Bounds clamps an adjusted score.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds returns the 1..10 range.
func DefaultBounds() Bounds {
	return Bounds{Min: DefaultMin, Max: DefaultMax}
}

// Valid reports whether the bounds form a non-empty range.
func (b Bounds) Valid() bool {
	return b.Min <= b.Max
}

// Adjust moves score one step up for a win or down for a loss, then clamps.
// A zero score is treated as 1 before the step; a negative one steps from
// where it is and is then clamped.
func Adjust(score int, won bool, b Bounds) int {
	if score == 0 {
		score = 1
	}
	if won {
		score++
	} else {
		score--
	}
	return min(b.Max, max(b.Min, score))
}

// Change describes one player's score update.
type Change struct {
	PlayerID string     `json:"id"`
	Role     model.Role `json:"role"`
	Before   int        `json:"before"`
	After    int        `json:"after"`
}

// Changes computes the updates implied by side winner winning draw d. The
// current scores come from lookup so that edits made since the draw are
// respected; assignments without a role or without a known player are skipped.
func Changes(d model.Draw, winner model.Side, b Bounds, lookup func(id string) (model.Player, bool)) []Change {
	out := make([]Change, 0, len(d.Team1)+len(d.Team2))
	for _, side := range []model.Side{model.SideTeam1, model.SideTeam2} {
		won := side == winner
		for _, a := range d.Team(side) {
			if a.Role == "" {
				continue
			}
			p, ok := lookup(a.PlayerID)
			if !ok {
				continue
			}
			before := p.Score(a.Role)
			out = append(out, Change{PlayerID: a.PlayerID, Role: a.Role, Before: before, After: Adjust(before, won, b)})
		}
	}
	return out
}
