package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/pkg/metrics"
)

// MemoryStore keeps the roster in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	players roster
	newID   func() string
}

// NewMemoryStore creates an empty roster, optionally seeded with players that
// already carry ids.
func NewMemoryStore(seed ...model.Player) *MemoryStore {
	s := &MemoryStore{newID: uuid.NewString}
	s.players = append(s.players, seed...)
	metrics.UpdateRosterSize(len(s.players))
	return s
}

// List returns a copy of the roster.
func (s *MemoryStore) List(ctx context.Context) ([]model.Player, error) {
	defer observe("list", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Player, len(s.players))
	copy(out, s.players)
	return out, nil
}

// Get returns one player.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Player, error) {
	defer observe("get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, err := s.players.byIDs([]string{id})
	if err != nil {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Player{}, err
	}
	return ps[0], nil
}

// ByIDs returns the requested players in request order.
func (s *MemoryStore) ByIDs(ctx context.Context, ids []string) ([]model.Player, error) {
	defer observe("by_ids", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, err := s.players.byIDs(ids)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "not_found")
	}
	return ps, err
}

// Create validates and stores a new player under a fresh id.
func (s *MemoryStore) Create(ctx context.Context, p model.Player) (model.Player, error) {
	defer observe("create", time.Now())
	p = Patch{Name: &p.Name}.Apply(p)
	if err := Validate(p); err != nil {
		return model.Player{}, err
	}
	p.ID = s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = append(s.players, p)
	metrics.UpdateRosterSize(len(s.players))
	return p, nil
}

// Update applies a patch to an existing player.
func (s *MemoryStore) Update(ctx context.Context, id string, patch Patch) (model.Player, error) {
	defer observe("update", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	next, p, err := s.players.update(id, patch)
	if err != nil {
		return model.Player{}, err
	}
	s.players = next
	return p, nil
}

// Delete removes a player if present.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	defer observe("delete", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players, _ = s.players.remove(id)
	metrics.UpdateRosterSize(len(s.players))
	return nil
}

// Count returns the roster size.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
