package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	logx "schedulerd/pkg/logx"
	"strings"
	"sync"
)

// fileStore is a dependency-free persistence backend.
//
// Records are appended to <path> as JSON Lines. Recent() replays the tail
// of the file into memory; this repo doesn't expect job-history files large
// enough to make that expensive.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	file *os.File
	path string

	ring    []JobRecord
	ringCap int
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("history.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	ring, err := loadTail(path, 1000)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("history: failed to load existing records", logx.Any("err", err))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{log: log, file: f, path: path, ring: ring, ringCap: 1000}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *fileStore) AppendRecord(ctx context.Context, r JobRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("history file closed")
	}
	enc := json.NewEncoder(s.file)
	if err := enc.Encode(r); err != nil {
		return err
	}
	s.ring = append(s.ring, r)
	if len(s.ring) > s.ringCap {
		s.ring = s.ring[len(s.ring)-s.ringCap:]
	}
	return nil
}

func (s *fileStore) Recent(ctx context.Context, limit int) ([]JobRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.ring) {
		limit = len(s.ring)
	}
	out := make([]JobRecord, limit)
	copy(out, s.ring[len(s.ring)-limit:])
	return out, nil
}

func loadTail(path string, cap int) ([]JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []JobRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var r JobRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		out = append(out, r)
		if len(out) > cap {
			out = out[len(out)-cap:]
		}
	}
	return out, sc.Err()
}
