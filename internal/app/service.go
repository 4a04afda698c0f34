// Package service wires the roster, the team splitter, the pending-draw book
// and the result pipeline into the operations exposed by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/okian/laneup/internal/adapters/history"
	"github.com/okian/laneup/internal/adapters/mq/queue"
	"github.com/okian/laneup/internal/adapters/mq/worker"
	"github.com/okian/laneup/internal/adapters/repository"
	"github.com/okian/laneup/internal/domain/dedupe"
	"github.com/okian/laneup/internal/domain/drawbook"
	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/internal/domain/randomsplit"
	"github.com/okian/laneup/internal/domain/rating"
	"github.com/okian/laneup/internal/domain/teamsplit"
	"github.com/okian/laneup/pkg/logger"
	"github.com/okian/laneup/pkg/metrics"
)

// Service implements the API dependencies for the draw system.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster   repository.Store
	history  history.Store
	book     *drawbook.Book
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	splitter *teamsplit.Splitter
	pool     *worker.Pool
	rng      *lockedRand
	now      func() time.Time

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	pendingDraws      int
	thresholds        []int
	maxAcceptableDiff int
	fallback          bool
	bounds            rating.Bounds
	pageSize          int

	// State
	started bool
	stopped bool

	logger logger.Logger
}

// New constructs a Service. Stores default to in-memory implementations.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       2,
		queueSize:         1024,
		dedupeSize:        10_000,
		pendingDraws:      1024,
		maxAcceptableDiff: 7,
		fallback:          true,
		bounds:            rating.DefaultBounds(),
		pageSize:          history.DefaultPageSize,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.roster == nil {
		s.roster = repository.NewMemoryStore()
	}
	if s.history == nil {
		s.history = history.NewMemoryStore()
	}
	if s.rng == nil {
		s.rng = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))} //nolint:gosec // team draws are not security sensitive
	}

	s.book = drawbook.New(drawbook.WithCapacity(s.pendingDraws))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.splitter = teamsplit.NewSplitter(
		teamsplit.WithCoin(s.rng),
		teamsplit.WithThresholds(s.thresholds),
	)
	return s
}

// Start launches the result workers. Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting draw service...")
	s.pool = worker.NewPool(s.workerCount, s.queue, s.roster, s.history,
		worker.WithBounds(s.bounds),
		worker.WithLogger(s.logger.Named("worker")),
		worker.WithFailed(s.requeueDraw),
	)
	// Workers outlive ctx so that Stop can drain the queue.
	s.pool.Start(context.WithoutCancel(ctx))

	metrics.UpdateRosterSize(s.roster.Count(ctx))
	metrics.UpdatePendingDraws(s.book.Len())

	s.started = true
	s.logger.Info(ctx, "draw service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("pendingDraws", s.pendingDraws),
		logger.Bool("fallback", s.fallback),
	)
	return nil
}

// Stop closes the result queue and waits for queued results to be applied.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true
	s.logger.Info(ctx, "stopping draw service...")

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	} else {
		_ = s.queue.Close()
	}
	s.started = false

	if err != nil {
		s.logger.Error(ctx, "draw service stopped with pending work", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "draw service stopped")
	return nil
}

// ListPlayers returns the roster.
func (s *Service) ListPlayers(ctx context.Context) ([]model.Player, error) {
	return s.roster.List(ctx)
}

// GetPlayer returns one player.
func (s *Service) GetPlayer(ctx context.Context, id string) (model.Player, error) {
	return s.roster.Get(ctx, id)
}

// CreatePlayer adds a player to the roster.
func (s *Service) CreatePlayer(ctx context.Context, p model.Player) (model.Player, error) {
	created, err := s.roster.Create(ctx, p)
	if err != nil {
		return model.Player{}, err
	}
	metrics.UpdateRosterSize(s.roster.Count(ctx))
	s.logger.Debug(ctx, "player created", logger.String("id", created.ID), logger.String("name", created.Name))
	return created, nil
}

// UpdatePlayer applies a partial update.
func (s *Service) UpdatePlayer(ctx context.Context, id string, patch repository.Patch) (model.Player, error) {
	return s.roster.Update(ctx, id, patch)
}

// DeletePlayer removes a player. Draws already holding the player are not
// affected; their result simply skips the missing player.
func (s *Service) DeletePlayer(ctx context.Context, id string) error {
	if err := s.roster.Delete(ctx, id); err != nil {
		return err
	}
	metrics.UpdateRosterSize(s.roster.Count(ctx))
	return nil
}

// Draw splits the selected players into two teams. With balance set, the
// role-aware splitter runs and, when enabled, a role-candidate shortage falls
// back to a random role-aware split. Without it, the players are shuffled
// into two halves. The draw is kept pending until its result is reported.
func (s *Service) Draw(ctx context.Context, ids []string, balance bool) (model.Draw, error) {
	start := s.now()

	stubs := lo.Map(ids, func(id string, _ int) model.Player { return model.Player{ID: id} })
	if err := teamsplit.CheckSelection(stubs); err != nil {
		metrics.RecordDrawFailure(teamsplit.Reason(err))
		return model.Draw{}, err
	}

	players, err := s.roster.ByIDs(ctx, ids)
	if err != nil {
		metrics.RecordDrawFailure("unknown_player")
		return model.Draw{}, fmt.Errorf("load selection: %w", err)
	}

	d := model.Draw{MatchID: uuid.NewString(), CreatedAt: start.UTC()}
	switch {
	case !balance:
		d.Mode = model.ModeUnbalanced
		d.Team1, d.Team2 = randomsplit.Unbalanced(players, s.rng)
	default:
		res, splitErr := s.splitter.Split(players)
		switch {
		case splitErr == nil:
			d.Mode = model.ModeBalanced
			d.Team1, d.Team2 = res.TeamA, res.TeamB
			d.Swaps = len(res.Report.Swaps)
			metrics.ObserveBalanceSwaps(d.Swaps)
		case s.fallback && errors.Is(splitErr, teamsplit.ErrInsufficientRoleCandidates):
			d.Mode = model.ModeFallback
			d.FallbackReason = teamsplit.Reason(splitErr)
			d.Team1, d.Team2 = randomsplit.RoleAware(players, s.rng)
			metrics.RecordFallback()
			s.logger.Warn(ctx, "balanced draw failed, using random split", logger.Error(splitErr))
		default:
			metrics.RecordDrawFailure(teamsplit.Reason(splitErr))
			return model.Draw{}, splitErr
		}
	}

	d.Sum1, d.Sum2 = d.Team1.Sum(), d.Team2.Sum()
	d.Diff = teamsplit.Diff(d.Team1, d.Team2)
	d.ZeroScoreRoles = d.Team1.ZeroScoreRoles() + d.Team2.ZeroScoreRoles()
	var warnings []string
	if d.ZeroScoreRoles > 0 {
		warnings = append(warnings, fmt.Sprintf("%d player(s) assigned to a role with 0 points", d.ZeroScoreRoles))
		metrics.RecordZeroScoreAssignments(d.ZeroScoreRoles)
	}
	if d.Diff > s.maxAcceptableDiff {
		warnings = append(warnings, fmt.Sprintf("score difference %d exceeds %d", d.Diff, s.maxAcceptableDiff))
	}
	if len(warnings) > 0 {
		d.Warning = strings.Join(warnings, "; ")
		metrics.RecordDrawWarning()
	}

	for _, id := range s.book.Put(d) {
		metrics.RecordDrawExpired()
		s.logger.Debug(ctx, "pending draw expired", logger.String("matchId", id))
	}

	metrics.UpdatePendingDraws(s.book.Len())
	metrics.RecordDraw(string(d.Mode))
	metrics.ObserveDrawDiff(d.Diff)
	metrics.RecordDrawLatency(float64(s.now().Sub(start).Microseconds()) / 1000)

	s.logger.Info(ctx, "draw created",
		logger.String("matchId", d.MatchID),
		logger.String("mode", string(d.Mode)),
		logger.Int("diff", d.Diff),
		logger.Int("swaps", d.Swaps),
		logger.Int("zeroScoreRoles", d.ZeroScoreRoles),
	)
	return d, nil
}

// PendingDraw returns a draw still awaiting its result.
func (s *Service) PendingDraw(ctx context.Context, matchID string) (model.Draw, error) {
	d, ok := s.book.Get(matchID)
	if !ok {
		return model.Draw{}, ErrDrawNotFound
	}
	return d, nil
}

// ReportResult queues the winner of a pending draw for rating updates and
// history. A match id that was already reported yields duplicate=true and no
// error; the result is applied at most once.
func (s *Service) ReportResult(ctx context.Context, matchID string, winner model.Side) (bool, error) {
	if !winner.Valid() {
		return false, ErrInvalidWinner
	}

	d, ok := s.book.Get(matchID)
	if !ok {
		if s.deduper.Seen(ctx, matchID) {
			metrics.RecordResultDuplicate()
			return true, nil
		}
		return false, ErrDrawNotFound
	}

	if s.deduper.SeenAndRecord(ctx, matchID) {
		metrics.RecordResultDuplicate()
		return true, nil
	}

	// Taken before enqueueing: a failed apply puts the draw back.
	s.book.Take(matchID)
	ev := model.ResultEvent{MatchID: matchID, Winner: winner, Draw: d, ReportedAt: s.now()}
	if err := s.queue.Enqueue(ctx, ev); err != nil {
		s.book.Put(d)
		s.deduper.Unrecord(ctx, matchID)
		switch {
		case errors.Is(err, queue.ErrFull):
			return false, ErrBackpressure
		case errors.Is(err, queue.ErrClosed):
			return false, ErrStopped
		}
		return false, err
	}

	metrics.UpdatePendingDraws(s.book.Len())
	s.logger.Debug(ctx, "result queued", logger.String("matchId", matchID), logger.String("winner", string(winner)))
	return false, nil
}

// requeueDraw makes a draw whose result could not be applied pending again,
// so the same result can be reported once more.
func (s *Service) requeueDraw(ev worker.Event, err error) {
	ctx := context.Background()
	s.deduper.Unrecord(ctx, ev.MatchID)
	for _, id := range s.book.Put(ev.Draw) {
		metrics.RecordDrawExpired()
		s.logger.Debug(ctx, "pending draw expired", logger.String("matchId", id))
	}
	metrics.UpdatePendingDraws(s.book.Len())
	s.logger.Warn(ctx, "result not applied, draw is pending again",
		logger.String("matchId", ev.MatchID),
		logger.Error(err),
	)
}

// History returns a newest-first page of applied matches. A non-positive
// page size selects the configured default.
func (s *Service) History(ctx context.Context, page, pageSize int) (history.Page, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	recs, total, err := s.history.List(ctx, page, pageSize)
	if err != nil {
		return history.Page{}, fmt.Errorf("list history: %w", err)
	}
	return history.NewPage(recs, page, pageSize, total), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"pendingCapacity":   s.book.Capacity(),
		"pendingDraws":      s.book.Len(),
		"queueLength":       s.queue.Len(ctx),
		"resultsSeen":       s.deduper.Size(),
		"rosterSize":        s.roster.Count(ctx),
		"balanceThresholds": s.splitter.Policy().Thresholds,
		"maxAcceptableDiff": s.maxAcceptableDiff,
		"fallback":          s.fallback,
	}
	if s.pool != nil {
		stats["resultsApplied"] = s.pool.Processed()
	}
	if n, err := s.history.Count(ctx); err == nil {
		stats["matches"] = n
	}

	metrics.UpdateQueueSize(s.queue.Len(ctx))
	metrics.UpdateRosterSize(s.roster.Count(ctx))
	return stats
}

// lockedRand serializes a *rand.Rand shared by the coin flip and the random
// splits.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Shuffle holds the lock for the whole permutation; swap must not call back
// into the source.
func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
