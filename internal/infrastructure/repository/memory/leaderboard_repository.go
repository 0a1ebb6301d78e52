package memory

import (
	"context"
	"sync"

	"github.com/prediksibola/predictor-league/internal/domain/leaderboard"
)

type LeaderboardRepository struct {
	mu        sync.RWMutex
	snapshots map[int]leaderboard.Snapshot
}

func NewLeaderboardRepository() *LeaderboardRepository {
	return &LeaderboardRepository{
		snapshots: map[int]leaderboard.Snapshot{},
	}
}

func (r *LeaderboardRepository) GetByRound(_ context.Context, round int) (leaderboard.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.snapshots[round]
	if !ok {
		return leaderboard.Snapshot{}, false, nil
	}
	return s, true, nil
}

func (r *LeaderboardRepository) GetLatest(_ context.Context) (leaderboard.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latestRound := 0
	for round := range r.snapshots {
		if round > latestRound {
			latestRound = round
		}
	}
	if latestRound == 0 {
		return leaderboard.Snapshot{}, false, nil
	}
	return r.snapshots[latestRound], true, nil
}

func (r *LeaderboardRepository) Save(_ context.Context, s leaderboard.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots[s.RoundNumber] = s
	return nil
}
