// Package snapshot stores per-source fixture snapshots as JSON documents on
// disk. Writes go through a temp file plus rename so readers never observe a
// partially written snapshot.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
)

type FileStore struct {
	dir string

	mu sync.RWMutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(source fixture.Source) string {
	return filepath.Join(s.dir, string(source)+"_fixtures.json")
}

// Load reads the stored snapshot for the source. A missing file fails with
// fixture.ErrSnapshotNotFound.
func (s *FileStore) Load(ctx context.Context, source fixture.Source) (fixture.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return fixture.Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(source))
	if err != nil {
		if os.IsNotExist(err) {
			return fixture.Snapshot{}, fmt.Errorf("snapshot: source=%s: %w", source, fixture.ErrSnapshotNotFound)
		}
		return fixture.Snapshot{}, fmt.Errorf("snapshot: read %s: %w", source, err)
	}

	var snap fixture.Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return fixture.Snapshot{}, fmt.Errorf("snapshot: decode %s: %w", source, err)
	}
	if snap.Fixtures == nil {
		snap.Fixtures = []fixture.Record{}
	}
	return snap, nil
}

// Save atomically replaces the stored snapshot for the source.
func (s *FileStore) Save(ctx context.Context, source fixture.Source, snap fixture.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Fixtures == nil {
		snap.Fixtures = []fixture.Record{}
	}

	data, err := sonic.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", source, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, string(source)+"_*.json.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(source)); err != nil {
		return fmt.Errorf("snapshot: replace %s: %w", source, err)
	}
	return nil
}

var _ fixture.Store = (*FileStore)(nil)
