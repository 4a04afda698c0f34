// Package repository defines the roster store interface and its in-memory
// and file-backed implementations.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/laneup/internal/domain/model"
)

// MaxScore bounds every stored score.
const MaxScore = 100

// Store provides read/write access to the player roster.
type Store interface {
	// List returns every player in insertion order.
	List(ctx context.Context) ([]model.Player, error)

	// Get returns one player or ErrNotFound.
	Get(ctx context.Context, id string) (model.Player, error)

	// ByIDs returns the players in the order requested. Any unknown id fails
	// the whole call with ErrNotFound.
	ByIDs(ctx context.Context, ids []string) ([]model.Player, error)

	// Create assigns a fresh id and stores the player.
	Create(ctx context.Context, p model.Player) (model.Player, error)

	// Update applies a partial patch and returns the stored result.
	Update(ctx context.Context, id string, patch Patch) (model.Player, error)

	// Delete removes a player. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of players on the roster.
	Count(ctx context.Context) int
}

// Patch carries a partial player update; nil fields are left unchanged.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Overall *int    `json:"overall,omitempty"`
	Top     *int    `json:"top,omitempty"`
	Jungle  *int    `json:"jungle,omitempty"`
	Mid     *int    `json:"mid,omitempty"`
	ADC     *int    `json:"adc,omitempty"`
	Support *int    `json:"support,omitempty"`
}

// ScorePatch builds a patch that sets a single role score.
func ScorePatch(r model.Role, v int) Patch {
	var p Patch
	switch r {
	case model.RoleTop:
		p.Top = &v
	case model.RoleJungle:
		p.Jungle = &v
	case model.RoleMid:
		p.Mid = &v
	case model.RoleADC:
		p.ADC = &v
	case model.RoleSupport:
		p.Support = &v
	}
	return p
}

// Apply returns p with the patch applied.
func (pt Patch) Apply(p model.Player) model.Player {
	if pt.Name != nil {
		p.Name = strings.TrimSpace(*pt.Name)
	}
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Overall, pt.Overall)
	set(&p.Top, pt.Top)
	set(&p.Jungle, pt.Jungle)
	set(&p.Mid, pt.Mid)
	set(&p.ADC, pt.ADC)
	set(&p.Support, pt.Support)
	return p
}

// Validate checks a player before it is stored.
func Validate(p model.Player) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidPlayer)
	}
	if strings.ContainsAny(name, "|\r\n") {
		return fmt.Errorf("%w: name must not contain '|' or line breaks", ErrInvalidPlayer)
	}
	scores := map[string]int{
		"overall": p.Overall, "top": p.Top, "jungle": p.Jungle,
		"mid": p.Mid, "adc": p.ADC, "support": p.Support,
	}
	for field, v := range scores {
		if v < 0 || v > MaxScore {
			return fmt.Errorf("%w: %s must be between 0 and %d, got %d", ErrInvalidPlayer, field, MaxScore, v)
		}
	}
	return nil
}

// roster is the ordered player list both stores operate on.
type roster []model.Player

func (r roster) index(id string) int {
	for i := range r {
		if r[i].ID == id {
			return i
		}
	}
	return -1
}

func (r roster) byIDs(ids []string) ([]model.Player, error) {
	out := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		i := r.index(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		out = append(out, r[i])
	}
	return out, nil
}

func (r roster) update(id string, patch Patch) (roster, model.Player, error) {
	i := r.index(id)
	if i < 0 {
		return r, model.Player{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := patch.Apply(r[i])
	if err := Validate(next); err != nil {
		return r, model.Player{}, err
	}
	r[i] = next
	return r, next, nil
}

func (r roster) remove(id string) (roster, bool) {
	i := r.index(id)
	if i < 0 {
		return r, false
	}
	return append(r[:i], r[i+1:]...), true
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
