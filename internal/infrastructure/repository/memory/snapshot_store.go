package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
)

// SnapshotStore keeps per-source fixture snapshots in memory. Loads and
// saves copy the fixture list so callers never share a backing array with
// the stored snapshot.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[fixture.Source]fixture.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: map[fixture.Source]fixture.Snapshot{},
	}
}

func (s *SnapshotStore) Load(_ context.Context, source fixture.Source) (fixture.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[source]
	if !ok {
		return fixture.Snapshot{}, fmt.Errorf("snapshot: source=%s: %w", source, fixture.ErrSnapshotNotFound)
	}
	snapshot.Fixtures = fixture.CloneRecords(snapshot.Fixtures)
	return snapshot, nil
}

func (s *SnapshotStore) Save(_ context.Context, source fixture.Source, snapshot fixture.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.Fixtures = fixture.CloneRecords(snapshot.Fixtures)
	s.snapshots[source] = snapshot
	return nil
}
