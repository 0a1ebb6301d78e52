package leaderboard

import "context"

// Repository persists per-round leaderboard snapshots. Position deltas are
// computed against the most recent stored snapshot.
type Repository interface {
	GetByRound(ctx context.Context, round int) (Snapshot, bool, error)
	GetLatest(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, s Snapshot) error
}
