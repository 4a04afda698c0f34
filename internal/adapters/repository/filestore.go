package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/pkg/metrics"
)

// File layout constants.
const (
	rosterFilePermission = 0600
	fieldSeparator       = "|"
	// id|name|overall|top|jungle|mid|adc|sup
	rosterFields = 8
)

// FileStore keeps the roster in a pipe-delimited text file, one player per
// line. The file is read on every call and rewritten atomically on every
// mutation so that hand edits between calls are picked up.
type FileStore struct {
	mu    sync.Mutex
	path  string
	newID func() string
}

// NewFileStore returns a store backed by path. A missing file is an empty
// roster; the parent directory is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, newID: uuid.NewString}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

// List returns every player in file order.
func (s *FileStore) List(ctx context.Context) ([]model.Player, error) {
	defer observe("list", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Get returns one player.
func (s *FileStore) Get(ctx context.Context, id string) (model.Player, error) {
	ps, err := s.ByIDs(ctx, []string{id})
	if err != nil {
		return model.Player{}, err
	}
	return ps[0], nil
}

// ByIDs returns the requested players in request order.
func (s *FileStore) ByIDs(ctx context.Context, ids []string) ([]model.Player, error) {
	defer observe("by_ids", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.read()
	if err != nil {
		return nil, err
	}
	ps, err := r.byIDs(ids)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "not_found")
	}
	return ps, err
}

// Create validates and appends a new player under a fresh id.
func (s *FileStore) Create(ctx context.Context, p model.Player) (model.Player, error) {
	defer observe("create", time.Now())
	p = Patch{Name: &p.Name}.Apply(p)
	if err := Validate(p); err != nil {
		return model.Player{}, err
	}
	p.ID = s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.read()
	if err != nil {
		return model.Player{}, err
	}
	if err := s.write(append(r, p)); err != nil {
		return model.Player{}, err
	}
	return p, nil
}

// Update applies a patch to an existing player.
func (s *FileStore) Update(ctx context.Context, id string, patch Patch) (model.Player, error) {
	defer observe("update", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.read()
	if err != nil {
		return model.Player{}, err
	}
	r, p, err := r.update(id, patch)
	if err != nil {
		return model.Player{}, err
	}
	if err := s.write(r); err != nil {
		return model.Player{}, err
	}
	return p, nil
}

// Delete removes a player if present.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	defer observe("delete", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.read()
	if err != nil {
		return err
	}
	r, removed := r.remove(id)
	if !removed {
		return nil
	}
	return s.write(r)
}

// Count returns the roster size, or 0 when the file cannot be read.
func (s *FileStore) Count(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.read()
	if err != nil {
		return 0
	}
	return len(r)
}

func (s *FileStore) read() (roster, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return roster{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	var r roster
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if p, ok := parseLine(sc.Text()); ok {
			r = append(r, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	metrics.UpdateRosterSize(len(r))
	return r, nil
}

func (s *FileStore) write(r roster) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create roster dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".roster-*")
	if err != nil {
		return fmt.Errorf("create temp roster: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	lines := make([]string, len(r))
	for i, p := range r {
		lines[i] = formatLine(p)
	}
	if _, err := tmp.WriteString(strings.Join(lines, "\n")); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write roster: %w", err)
	}
	if err := tmp.Chmod(rosterFilePermission); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close roster: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}
	metrics.UpdateRosterSize(len(r))
	return nil
}

// parseLine decodes one roster line. Blank lines and the optional
// "id|name|..." header are skipped; unparsable numbers read as 0.
func parseLine(line string) (model.Player, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.Player{}, false
	}
	f := strings.Split(line, fieldSeparator)
	for len(f) < rosterFields {
		f = append(f, "")
	}
	if f[0] == "" || strings.EqualFold(f[0], "id") || strings.EqualFold(f[1], "name") {
		return model.Player{}, false
	}
	num := func(s string) int {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return model.Player{
		ID:      f[0],
		Name:    f[1],
		Overall: num(f[2]),
		Top:     num(f[3]),
		Jungle:  num(f[4]),
		Mid:     num(f[5]),
		ADC:     num(f[6]),
		Support: num(f[7]),
	}, true
}

func formatLine(p model.Player) string {
	return strings.Join([]string{
		p.ID, p.Name,
		strconv.Itoa(p.Overall),
		strconv.Itoa(p.Top),
		strconv.Itoa(p.Jungle),
		strconv.Itoa(p.Mid),
		strconv.Itoa(p.ADC),
		strconv.Itoa(p.Support),
	}, fieldSeparator)
}
