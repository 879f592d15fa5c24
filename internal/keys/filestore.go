package keys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileStore persists balances in a single YAML document on disk, mirroring
// the classic keys-file layout: case ID → player → count.
//
// Mutations update memory immediately and mark the store dirty; Flush
// writes the document atomically (temp file + rename). The caller is
// expected to flush periodically and on shutdown, trading a small crash
// window for not rewriting the file on every single grant.
type FileStore struct {
	path string
	log  *zap.Logger

	mu    sync.Mutex
	data  map[string]map[string]int
	dirty bool
}

// NewFileStore loads (or creates) the YAML key file at path.
func NewFileStore(path string, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &FileStore{
		path: path,
		log:  log.Named("filestore"),
		data: make(map[string]map[string]int),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		return s, nil
	}
	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse key file %s: %w", path, err)
	}
	if s.data == nil {
		s.data = make(map[string]map[string]int)
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, caseID, player string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[caseID][player], nil
}

func (s *FileStore) Set(_ context.Context, caseID, player string, amount int) error {
	if amount < 0 {
		amount = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(caseID, player, amount)
	return nil
}

func (s *FileStore) Add(_ context.Context, caseID, player string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance := s.data[caseID][player] + amount
	s.put(caseID, player, balance)
	return balance, nil
}

func (s *FileStore) Remove(_ context.Context, caseID, player string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance := s.data[caseID][player] - amount
	if balance < 0 {
		balance = 0
	}
	s.put(caseID, player, balance)
	return balance, nil
}

// put stores the balance and marks the document dirty. Zero balances stay
// in the map so the file keeps an explicit record of spent-out players.
func (s *FileStore) put(caseID, player string, amount int) {
	players, ok := s.data[caseID]
	if !ok {
		players = make(map[string]int)
		s.data[caseID] = players
	}
	players[player] = amount
	s.dirty = true
}

// Flush writes the document to disk if anything changed since the last
// flush. Safe to call from a periodic job.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".keys-*.yml")
	if err != nil {
		return fmt.Errorf("create temp key file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp key file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace key file: %w", err)
	}

	s.dirty = false
	s.log.Debug("key file flushed", zap.String("path", s.path))
	return nil
}

// Close flushes any pending writes.
func (s *FileStore) Close() error {
	return s.Flush()
}
