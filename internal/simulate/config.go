// Package simulate seeds a running laneup server over HTTP, plays draws with
// random winners and checks the draw invariants client-side.
package simulate

import (
	"time"

	"github.com/okian/laneup/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL         string        // Base URL of the service
	NumPlayers      int           // Players to create before drawing
	NumDraws        int           // Draws to perform
	Workers         int           // Concurrent HTTP workers
	UnbalancedEvery int           // Every n-th draw has balancing off; 0 never
	Timeout         time.Duration // HTTP request timeout
	SettleTimeout   time.Duration // How long to wait for results to be applied
	Seed            int64         // Random seed for players, selections and winners
	Verbose         bool          // Log every draw
}

// Stats holds run statistics.
type Stats struct {
	PlayersCreated   int
	DrawsRequested   int
	DrawsBalanced    int
	DrawsFallback    int
	DrawsUnbalanced  int
	DrawsFailed      int
	DrawsWarned      int
	InvariantErrors  int
	ResultsAccepted  int
	ResultsDuplicate int
	ResultsRejected  int
	MatchesRecorded  int
	MaxDiff          int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

// drawRequest mirrors the body of POST /api/draws.
type drawRequest struct {
	PlayerIDs []string `json:"player_ids"`
	Balance   bool     `json:"balance"`
}

// resultRequest mirrors the body of POST /api/draws/{id}/result.
type resultRequest struct {
	Winner model.Side `json:"winner"`
}

// ackResponse mirrors the result acknowledgement.
type ackResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
}

// historyPage mirrors GET /api/match-history.
type historyPage struct {
	Records []model.MatchRecord `json:"records"`
	Total   int                 `json:"total"`
}

// plannedDraw is one draw decided up front so workers share no random state.
type plannedDraw struct {
	index     int
	selection []string
	balance   bool
	winner    model.Side
}
