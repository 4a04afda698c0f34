package model

import "time"

// Side identifies one of the two teams of a draw.
type Side string

// Team sides as they appear on the wire and in match history.
const (
	SideTeam1 Side = "team1"
	SideTeam2 Side = "team2"
)

// Valid reports whether s names one of the two sides.
func (s Side) Valid() bool {
	return s == SideTeam1 || s == SideTeam2
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideTeam1 {
		return SideTeam2
	}
	return SideTeam1
}

// Mode selects how a draw was produced.
type Mode string

// Draw modes.
const (
	ModeBalanced   Mode = "balanced"
	ModeFallback   Mode = "fallback"
	ModeUnbalanced Mode = "unbalanced"
)

// Draw is a produced team split awaiting a reported winner.
type Draw struct {
	MatchID   string    `json:"match_id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      Mode      `json:"mode"`
	Team1     Team      `json:"team1"`
	Team2     Team      `json:"team2"`
	Sum1      int       `json:"team1_sum"`
	Sum2      int       `json:"team2_sum"`
	Diff      int       `json:"diff"`
	// Swaps counts balancing swaps accepted for balanced draws.
	Swaps int `json:"swaps"`
	// FallbackReason carries the failure code when Mode is ModeFallback.
	FallbackReason string `json:"fallback_reason,omitempty"`
	// ZeroScoreRoles counts players placed in a role they score 0 in.
	ZeroScoreRoles int    `json:"zero_score_roles,omitempty"`
	Warning        string `json:"warning,omitempty"`
}

// Team returns the line-up for side s.
func (d Draw) Team(s Side) Team {
	if s == SideTeam1 {
		return d.Team1
	}
	return d.Team2
}

// MatchRecord is one persisted match-history line.
type MatchRecord struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // unix millis
	Mode      Mode   `json:"mode,omitempty"`
	Winner    Side   `json:"winner"`
	Team1     Team   `json:"team1"`
	Team2     Team   `json:"team2"`
}

// ResultEvent carries a reported winner through the result pipeline.
type ResultEvent struct {
	MatchID    string
	Winner     Side
	Draw       Draw
	ReportedAt time.Time
}
