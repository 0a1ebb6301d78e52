package cache

import (
	"context"
	"strconv"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/domain/leaderboard"
	basecache "github.com/prediksibola/predictor-league/internal/platform/cache"
)

// SnapshotStore caches per-source snapshot loads in front of a slower store.
// Saves write through and invalidate the cached copy. Every Load hands out a
// fresh fixture array; mutating a loaded snapshot never touches the cached
// value that concurrent readers serialize.
type SnapshotStore struct {
	next  fixture.Store
	cache *basecache.Store
}

func NewSnapshotStore(next fixture.Store, cache *basecache.Store) *SnapshotStore {
	return &SnapshotStore{next: next, cache: cache}
}

func (s *SnapshotStore) Load(ctx context.Context, source fixture.Source) (fixture.Snapshot, error) {
	key := "snapshot:" + string(source)
	v, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.next.Load(ctx, source)
	})
	if err != nil {
		return fixture.Snapshot{}, err
	}

	snapshot, _ := v.(fixture.Snapshot)
	snapshot.Fixtures = fixture.CloneRecords(snapshot.Fixtures)
	return snapshot, nil
}

func (s *SnapshotStore) Save(ctx context.Context, source fixture.Source, snapshot fixture.Snapshot) error {
	if err := s.next.Save(ctx, source, snapshot); err != nil {
		return err
	}
	s.cache.Delete(ctx, "snapshot:"+string(source))
	return nil
}

// LeaderboardRepository caches round and latest snapshot reads. Saving a
// round drops both its entry and the latest pointer.
type LeaderboardRepository struct {
	next  leaderboard.Repository
	cache *basecache.Store
}

func NewLeaderboardRepository(next leaderboard.Repository, cache *basecache.Store) *LeaderboardRepository {
	return &LeaderboardRepository{next: next, cache: cache}
}

type leaderboardLookup struct {
	snapshot leaderboard.Snapshot
	found    bool
}

func (r *LeaderboardRepository) GetByRound(ctx context.Context, round int) (leaderboard.Snapshot, bool, error) {
	key := "leaderboard:round:" + strconv.Itoa(round)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		snapshot, found, err := r.next.GetByRound(ctx, round)
		if err != nil {
			return nil, err
		}
		return leaderboardLookup{snapshot: snapshot, found: found}, nil
	})
	if err != nil {
		return leaderboard.Snapshot{}, false, err
	}

	lookup, _ := v.(leaderboardLookup)
	return lookup.snapshot, lookup.found, nil
}

func (r *LeaderboardRepository) GetLatest(ctx context.Context) (leaderboard.Snapshot, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "leaderboard:latest", func(ctx context.Context) (any, error) {
		snapshot, found, err := r.next.GetLatest(ctx)
		if err != nil {
			return nil, err
		}
		return leaderboardLookup{snapshot: snapshot, found: found}, nil
	})
	if err != nil {
		return leaderboard.Snapshot{}, false, err
	}

	lookup, _ := v.(leaderboardLookup)
	return lookup.snapshot, lookup.found, nil
}

func (r *LeaderboardRepository) Save(ctx context.Context, s leaderboard.Snapshot) error {
	if err := r.next.Save(ctx, s); err != nil {
		return err
	}
	r.cache.Delete(ctx, "leaderboard:round:"+strconv.Itoa(s.RoundNumber))
	r.cache.Delete(ctx, "leaderboard:latest")
	return nil
}
