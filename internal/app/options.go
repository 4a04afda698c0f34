package service

import (
	"math/rand"
	"time"

	"github.com/okian/laneup/internal/adapters/history"
	"github.com/okian/laneup/internal/adapters/repository"
	"github.com/okian/laneup/internal/domain/rating"
	"github.com/okian/laneup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRoster sets the roster store. Defaults to an empty MemoryStore.
func WithRoster(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.roster = store
		}
	}
}

// WithHistory sets the match-history store. Defaults to a MemoryStore.
func WithHistory(store history.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.history = store
		}
	}
}

// WithWorkerCount sets the number of result workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the result queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps how many applied match ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPendingDraws caps how many draws may await a result.
func WithPendingDraws(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pendingDraws = n
		}
	}
}

// WithThresholds sets the balancing threshold ladder.
func WithThresholds(ladder []int) Option {
	return func(s *Service) {
		s.thresholds = ladder
	}
}

// WithMaxAcceptableDiff sets the difference above which a draw carries a
// warning.
func WithMaxAcceptableDiff(d int) Option {
	return func(s *Service) {
		if d >= 0 {
			s.maxAcceptableDiff = d
		}
	}
}

// WithFallback controls whether a failed balanced draw falls back to a
// random role-aware split.
func WithFallback(enabled bool) Option {
	return func(s *Service) {
		s.fallback = enabled
	}
}

// WithRatingBounds sets the clamp applied after results.
func WithRatingBounds(b rating.Bounds) Option {
	return func(s *Service) {
		if b.Valid() {
			s.bounds = b
		}
	}
}

// WithHistoryPageSize sets the default history page size.
func WithHistoryPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithRand injects the random source shared by the coin flip and the random
// splits.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		if r != nil {
			s.rng = &lockedRand{r: r}
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
