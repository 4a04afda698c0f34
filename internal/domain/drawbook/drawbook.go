// Package drawbook holds draws that are waiting for a reported result.
package drawbook

import (
	"container/list"
	"sync"

	"github.com/okian/laneup/internal/domain/model"
)

const defaultCapacity = 1024

// Book is a bounded, insertion-ordered map of pending draws keyed by match id.
// When full, the oldest pending draw is dropped.
type Book struct {
	mu       sync.Mutex
	capacity int
	byID     map[string]*list.Element
	order    *list.List
}

// Option configures a Book.
type Option func(*Book)

// WithCapacity sets how many pending draws are kept.
func WithCapacity(n int) Option {
	return func(b *Book) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// New returns an empty book.
func New(opts ...Option) *Book {
	b := &Book{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(b)
	}
	b.byID = make(map[string]*list.Element, b.capacity)
	b.order = list.New()
	return b
}

// Put stores d under d.MatchID and returns the match ids evicted to make room.
// Re-putting an existing id replaces the draw and keeps its position.
func (b *Book) Put(d model.Draw) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.byID[d.MatchID]; ok {
		e.Value = d
		return nil
	}
	var evicted []string
	for b.order.Len() >= b.capacity {
		oldest := b.order.Front()
		id := oldest.Value.(model.Draw).MatchID
		b.order.Remove(oldest)
		delete(b.byID, id)
		evicted = append(evicted, id)
	}
	b.byID[d.MatchID] = b.order.PushBack(d)
	return evicted
}

// Get returns the pending draw without removing it.
func (b *Book) Get(id string) (model.Draw, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.byID[id]
	if !ok {
		return model.Draw{}, false
	}
	return e.Value.(model.Draw), true
}

// Take removes and returns the pending draw.
func (b *Book) Take(id string) (model.Draw, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.byID[id]
	if !ok {
		return model.Draw{}, false
	}
	b.order.Remove(e)
	delete(b.byID, id)
	return e.Value.(model.Draw), true
}

// Len returns the number of pending draws.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order.Len()
}

// Capacity returns the configured bound.
func (b *Book) Capacity() int {
	return b.capacity
}
