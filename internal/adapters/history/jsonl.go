package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/okian/laneup/internal/domain/model"
	"github.com/okian/laneup/pkg/logger"
	"github.com/okian/laneup/pkg/metrics"
)

const (
	historyFilePermission = 0600
	maxLineBytes          = 8 * 1024 * 1024
)

// JSONLStore appends one JSON object per line to a file.
type JSONLStore struct {
	mu     sync.Mutex
	path   string
	logger logger.Logger
}

// NewJSONLStore returns a store writing to path. The file and its directory
// are created on first append.
func NewJSONLStore(path string, log logger.Logger) *JSONLStore {
	return &JSONLStore{path: path, logger: log}
}

// Append writes rec as a single line.
func (s *JSONLStore) Append(ctx context.Context, rec model.MatchRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode match record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, historyFilePermission)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("append history: %w", err)
	}
	return f.Close()
}

// List reads the whole file and returns one page, newest first. Lines that
// fail to decode are skipped.
func (s *JSONLStore) List(ctx context.Context, page, pageSize int) ([]model.MatchRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	metrics.UpdateHistorySize(len(all))
	return paginate(all, page, pageSize), len(all), nil
}

// Count returns the number of readable records.
func (s *JSONLStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *JSONLStore) readAll(ctx context.Context) ([]model.MatchRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var out []model.MatchRecord
	sc := bufio.NewScanner(f)
	// Allow larger lines than the default 64K.
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.MatchRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			if s.logger != nil {
				s.logger.Warn(ctx, "skipping unreadable history line", logger.Int("line", lineNo), logger.Error(err))
			}
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return out, nil
}
