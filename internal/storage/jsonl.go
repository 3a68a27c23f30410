package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"swapScope/internal/model"
)

// JsonlStore appends pool snapshots to a JSONL file, one snapshot per
// line, and reads the latest back. Suitable for CLI use and local
// inspection; the Postgres store is the production counterpart.
type JsonlStore struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStore(path string) *JsonlStore {
	return &JsonlStore{path: path}
}

// SaveSnapshot appends the snapshot as one JSON line.
func (s *JsonlStore) SaveSnapshot(_ context.Context, snap model.PoolSnapshot) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// LatestSnapshot scans the file and returns the newest snapshot for the
// chain.
func (s *JsonlStore) LatestSnapshot(_ context.Context, chainID uint64) (model.PoolSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.PoolSnapshot{}, ErrNoSnapshot
		}
		return model.PoolSnapshot{}, fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	var latest model.PoolSnapshot
	found := false

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1<<20), 64<<20)
	for scanner.Scan() {
		var snap model.PoolSnapshot
		if err := json.Unmarshal(scanner.Bytes(), &snap); err != nil {
			return model.PoolSnapshot{}, fmt.Errorf("decode snapshot line: %w", err)
		}
		if snap.ChainID != chainID {
			continue
		}
		if !found || snap.FetchedAt.After(latest.FetchedAt) {
			latest = snap
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("scan snapshot file: %w", err)
	}
	if !found {
		return model.PoolSnapshot{}, ErrNoSnapshot
	}

	return latest, nil
}
