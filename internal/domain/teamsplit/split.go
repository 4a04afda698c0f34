package teamsplit

import (
	"math/rand"
	"sync"
	"time"

	"github.com/okian/laneup/internal/domain/model"
)

// Option applies a configuration option to the Splitter.
type Option func(*Splitter)

// WithCoin injects the random source used for the per-role coin flip.
func WithCoin(coin Coin) Option {
	return func(s *Splitter) {
		if coin != nil {
			s.coin = coin
		}
	}
}

// WithPolicy replaces the role orders and threshold ladder.
func WithPolicy(p Policy) Option {
	return func(s *Splitter) {
		if len(p.AssignOrder) > 0 && len(p.SwapPriority) > 0 && len(p.Thresholds) > 0 {
			s.policy = p
		}
	}
}

// WithThresholds replaces only the threshold ladder.
func WithThresholds(ladder []int) Option {
	return func(s *Splitter) {
		s.policy = s.policy.WithThresholds(ladder)
	}
}

// Result is a successful split.
type Result struct {
	TeamA  model.Team
	TeamB  model.Team
	Report Report
}

// Diff returns the final absolute score difference.
func (r Result) Diff() int { return r.Report.FinalDiff }

// Splitter runs role assignment followed by balancing. It is safe for
// concurrent use; calls share only the coin, which is serialized.
type Splitter struct {
	mu     sync.Mutex
	coin   Coin
	policy Policy
}

// NewSplitter creates a Splitter with a time-seeded coin and the default policy.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		coin:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // fairness coin, not security sensitive
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the policy in effect.
func (s *Splitter) Policy() Policy { return s.policy }

// Split validates the selection, assigns roles and balances the teams.
// Balancing only runs when assignment succeeded.
func (s *Splitter) Split(players []model.Player) (Result, error) {
	if err := CheckSelection(players); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	teamA, teamB, err := Assign(players, s.coin, s.policy.AssignOrder)
	s.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	teamA, teamB, rep := Balance(teamA, teamB, s.policy)
	return Result{TeamA: teamA, TeamB: teamB, Report: rep}, nil
}
