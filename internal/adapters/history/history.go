// Package history persists finished matches as an append-only log.
package history

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/pkg/metrics"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// ErrInvalidRecord is returned for records missing an id or a valid winner.
var ErrInvalidRecord = errors.New("invalid match record")

// Store appends and pages through match records.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, rec model.MatchRecord) error

	// List returns page (1-based) of the records, newest first, and the total
	// number of records.
	List(ctx context.Context, page, pageSize int) ([]model.MatchRecord, int, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)
}

// Page is a slice of history plus paging metadata.
type Page struct {
	Records    []model.MatchRecord `json:"records"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
}

func validate(rec model.MatchRecord) error {
	if rec.ID == "" || !rec.Winner.Valid() {
		return ErrInvalidRecord
	}
	return nil
}

// paginate sorts newest first (stable, so equal timestamps keep append
// order reversed) and cuts out one page.
func paginate(all []model.MatchRecord, page, pageSize int) []model.MatchRecord {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	sorted := make([]model.MatchRecord, len(all))
	for i := range all {
		sorted[len(all)-1-i] = all[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp > sorted[j].Timestamp })

	start := (page - 1) * pageSize
	if start >= len(sorted) {
		return []model.MatchRecord{}
	}
	end := min(start+pageSize, len(sorted))
	return sorted[start:end]
}

// NewPage wraps a listed page with its metadata.
func NewPage(records []model.MatchRecord, page, pageSize, total int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return Page{
		Records:    records,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.MatchRecord
}

// NewMemoryStore returns an empty history.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores rec.
func (s *MemoryStore) Append(ctx context.Context, rec model.MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	metrics.UpdateHistorySize(len(s.records))
	return nil
}

// List returns one page, newest first.
func (s *MemoryStore) List(ctx context.Context, page, pageSize int) ([]model.MatchRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.records, page, pageSize), len(s.records), nil
}

// Count returns the number of records.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*JSONLStore)(nil)
)
