// Package worker applies reported match results: role scores move by one
// step for every assigned player and the match is appended to history.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/okian/laneup/internal/adapters/mq/queue"
	"github.com/okian/laneup/internal/adapters/repository"
	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/internal/domain/rating"
	"github.com/okian/laneup/pkg/logger"
	"github.com/okian/laneup/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Roster is the part of the roster store a worker reads and writes.
type Roster interface {
	List(ctx context.Context) ([]model.Player, error)
	Update(ctx context.Context, id string, patch repository.Patch) (model.Player, error)
}

// History records applied matches.
type History interface {
	Append(ctx context.Context, rec model.MatchRecord) error
}

// Queue defines how workers receive results.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// AppliedFunc is called after a result has been fully applied.
type AppliedFunc func(rec model.MatchRecord, changes []rating.Change)

// FailedFunc is called when a result could not be applied. Its score changes
// have already been rolled back.
type FailedFunc func(ev Event, err error)

// Worker processes results until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the result in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	roster  Roster
	history History
	bounds  rating.Bounds
	name    string
	applied AppliedFunc
	failed  FailedFunc

	// applyMu serializes the roster read-modify-write; workers of one pool
	// share it.
	applyMu *sync.Mutex

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, roster Roster, history History, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		roster:   roster,
		history:  history,
		bounds:   rating.DefaultBounds(),
		name:     "worker",
		applyMu:  &sync.Mutex{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := w.Apply(ctx, ev); err != nil {
				w.logger.Error(ctx, "error applying result",
					logger.String("match_id", ev.MatchID),
					logger.Error(err),
				)
				if w.failed != nil {
					w.failed(ev, err)
				}
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Apply adjusts the scores of every player in the draw and records the match.
// Players deleted since the draw are skipped.
func (w *InMemoryWorker) Apply(ctx context.Context, ev Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	w.applyMu.Lock()
	defer w.applyMu.Unlock()

	players, err := w.roster.List(ctx)
	if err != nil {
		w.fail("roster_read", start)
		return fmt.Errorf("read roster for %s: %w", ev.MatchID, err)
	}
	byID := lo.KeyBy(players, func(p model.Player) string { return p.ID })
	lookup := func(id string) (model.Player, bool) {
		p, ok := byID[id]
		return p, ok
	}

	changes := rating.Changes(ev.Draw, ev.Winner, w.bounds, lookup)
	written := make([]rating.Change, 0, len(changes))
	for _, c := range changes {
		switch {
		case c.After > c.Before:
			metrics.RecordRatingChange("up")
		case c.After < c.Before:
			metrics.RecordRatingChange("down")
		default:
			metrics.RecordRatingChange("flat")
			continue
		}
		_, err := w.roster.Update(ctx, c.PlayerID, repository.ScorePatch(c.Role, c.After))
		if errors.Is(err, repository.ErrNotFound) {
			w.logger.Warn(ctx, "player removed before result was applied",
				logger.String("match_id", ev.MatchID),
				logger.String("player_id", c.PlayerID),
			)
			continue
		}
		if err != nil {
			w.rollback(ctx, ev.MatchID, written)
			w.fail("roster_update", start)
			return fmt.Errorf("update %s for %s: %w", c.PlayerID, ev.MatchID, err)
		}
		written = append(written, c)
	}

	rec := model.MatchRecord{
		ID:        ev.MatchID,
		Timestamp: ev.ReportedAt.UnixMilli(),
		Mode:      ev.Draw.Mode,
		Winner:    ev.Winner,
		Team1:     ev.Draw.Team1,
		Team2:     ev.Draw.Team2,
	}
	if err := w.history.Append(ctx, rec); err != nil {
		w.rollback(ctx, ev.MatchID, written)
		w.fail("history_append", start)
		return fmt.Errorf("record %s: %w", ev.MatchID, err)
	}

	metrics.RecordResultApplied()
	w.logger.Debug(ctx, "result applied",
		logger.String("match_id", ev.MatchID),
		logger.String("winner", string(ev.Winner)),
		logger.Int("changes", len(changes)),
	)
	if w.applied != nil {
		w.applied(rec, changes)
	}
	return nil
}

// rollback restores the scores a failed result already wrote, so a result
// either lands in both roster and history or in neither.
func (w *InMemoryWorker) rollback(ctx context.Context, matchID string, written []rating.Change) {
	for _, c := range written {
		if _, err := w.roster.Update(ctx, c.PlayerID, repository.ScorePatch(c.Role, c.Before)); err != nil {
			w.logger.Error(ctx, "score rollback failed",
				logger.String("match_id", matchID),
				logger.String("player_id", c.PlayerID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordRatingRollback()
	}
}

func (w *InMemoryWorker) fail(kind string, start time.Time) {
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
	metrics.RecordErrorByType(kind, "high")
	metrics.RecordErrorLatency("worker", kind, float64(time.Since(start).Microseconds())/1000)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown     chan struct{}
	shutdownOnce sync.Once
	applyMu      sync.Mutex

	processed         atomic.Int64
	total             atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates workerCount workers; a non-positive count uses one per CPU.
// The options are applied to every worker.
func NewPool(workerCount int, q Queue, roster Roster, history History, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, roster, history, workerOpts...)
		w.applyMu = &p.applyMu
		user := w.applied
		w.applied = func(rec model.MatchRecord, changes []rating.Change) {
			p.processed.Add(1)
			p.total.Add(1)
			if user != nil {
				user(rec, changes)
			}
		}
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns how many results the pool has applied.
func (p *Pool) Processed() int64 {
	return p.total.Load()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	metrics.UpdateWorkerIdleCount(0)

	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(p.processed.Swap(0)) / elapsed)
	}
	p.lastProcessedTime = now
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx (capped at 30s) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			_ = w.Shutdown(shutdownCtx)
		}
	}

	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(len(p.workers))
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
