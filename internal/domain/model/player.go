// Package model contains domain models passed between layers.
package model

// Role is a lane/position a player occupies in a match.
type Role string

// Roles known to the draw. The zero Role means "unassigned".
const (
	RoleTop     Role = "top"
	RoleJungle  Role = "jungle"
	RoleMid     Role = "mid"
	RoleADC     Role = "adc"
	RoleSupport Role = "support"
)

// Roles returns every role in assignment order. A fresh slice is returned on
// each call so callers may reorder it freely.
func Roles() []Role {
	return []Role{RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport}
}

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport:
		return true
	}
	return false
}

// Player is a roster entry with per-role proficiency scores.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Overall int    `json:"overall"`
	Top     int    `json:"top"`
	Jungle  int    `json:"jungle"`
	Mid     int    `json:"mid"`
	ADC     int    `json:"adc"`
	Support int    `json:"support"`
}

// Score returns the player's proficiency for role r, or 0 for unknown roles.
func (p Player) Score(r Role) int {
	switch r {
	case RoleTop:
		return p.Top
	case RoleJungle:
		return p.Jungle
	case RoleMid:
		return p.Mid
	case RoleADC:
		return p.ADC
	case RoleSupport:
		return p.Support
	}
	return 0
}

// SetScore sets the proficiency for role r. Unknown roles are ignored.
func (p *Player) SetScore(r Role, v int) {
	switch r {
	case RoleTop:
		p.Top = v
	case RoleJungle:
		p.Jungle = v
	case RoleMid:
		p.Mid = v
	case RoleADC:
		p.ADC = v
	case RoleSupport:
		p.Support = v
	}
}

// PlayableRoles returns the roles with a strictly positive score, in
// assignment order.
func (p Player) PlayableRoles() []Role {
	out := make([]Role, 0, len(Roles()))
	for _, r := range Roles() {
		if p.Score(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Assignment places one player into one role for one match.
type Assignment struct {
	PlayerID string `json:"id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Score    int    `json:"assigned_score"`
}

// Assign builds the Assignment of p to role r using p's current score.
func Assign(p Player, r Role) Assignment {
	return Assignment{PlayerID: p.ID, Name: p.Name, Role: r, Score: p.Score(r)}
}

// Team is an ordered line-up of assignments.
type Team []Assignment

// Sum totals the assigned scores. Negative scores count as zero.
func (t Team) Sum() int {
	total := 0
	for _, a := range t {
		if a.Score > 0 {
			total += a.Score
		}
	}
	return total
}

// ZeroScoreRoles counts players placed in a role they score 0 in.
func (t Team) ZeroScoreRoles() int {
	n := 0
	for _, a := range t {
		if a.Role != "" && a.Score <= 0 {
			n++
		}
	}
	return n
}

// IDs returns the player ids in line-up order.
func (t Team) IDs() []string {
	ids := make([]string, len(t))
	for i, a := range t {
		ids[i] = a.PlayerID
	}
	return ids
}

// ByRole returns the assignment holding role r.
func (t Team) ByRole(r Role) (Assignment, bool) {
	for _, a := range t {
		if a.Role == r {
			return a, true
		}
	}
	return Assignment{}, false
}

// Clone returns a copy that does not share backing storage with t.
func (t Team) Clone() Team {
	if t == nil {
		return nil
	}
	out := make(Team, len(t))
	copy(out, t)
	return out
}
