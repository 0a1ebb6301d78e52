package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/prediksibola/predictor-league/internal/domain/leaderboard"
	"github.com/prediksibola/predictor-league/internal/domain/user"
)

type stubLeaderboardRepo struct {
	snapshots []leaderboard.Snapshot
}

func (s *stubLeaderboardRepo) GetByRound(_ context.Context, round int) (leaderboard.Snapshot, bool, error) {
	for _, snap := range s.snapshots {
		if snap.RoundNumber == round {
			return snap, true, nil
		}
	}
	return leaderboard.Snapshot{}, false, nil
}

func (s *stubLeaderboardRepo) GetLatest(_ context.Context) (leaderboard.Snapshot, bool, error) {
	var latest leaderboard.Snapshot
	found := false
	for _, snap := range s.snapshots {
		if !found || snap.RoundNumber > latest.RoundNumber {
			latest = snap
			found = true
		}
	}
	return latest, found, nil
}

func (s *stubLeaderboardRepo) Save(_ context.Context, snap leaderboard.Snapshot) error {
	for i := range s.snapshots {
		if s.snapshots[i].RoundNumber == snap.RoundNumber {
			s.snapshots[i] = snap
			return nil
		}
	}
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func pointsWith(total int, matchPoints ...int) *user.Points {
	points := &user.Points{TotalPoints: total, Matches: map[string][]user.MatchPoints{}}
	row := make([]user.MatchPoints, 0, len(matchPoints))
	for i, p := range matchPoints {
		row = append(row, user.MatchPoints{GameID: string(rune('a' + i)), Points: p})
	}
	points.Matches["1"] = row
	return points
}

func TestLeaderboardRebuildRanksAndCounts(t *testing.T) {
	t.Parallel()

	users := &stubUserRepo{users: []user.User{
		{ID: "u1", Name: "Alice", Points: pointsWith(7, 3, 3, 1, 0)},
		{ID: "u2", Name: "Bob", Points: pointsWith(9, 3, 3, 3)},
		{ID: "u3", Name: "Cara"},
	}}
	repo := &stubLeaderboardRepo{}
	svc := NewLeaderboardService(repo, users, nil)

	snapshot, err := svc.Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(snapshot.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snapshot.Entries))
	}

	first := snapshot.Entries[0]
	if first.UserID != "u2" || first.Position != 1 || first.ExactPredictions != 3 {
		t.Fatalf("unexpected leader: %+v", first)
	}
	second := snapshot.Entries[1]
	if second.UserID != "u1" || second.ExactPredictions != 2 || second.CorrectPredictions != 1 {
		t.Fatalf("unexpected runner up: %+v", second)
	}
	if snapshot.Entries[2].UserID != "u3" || snapshot.Entries[2].TotalPoints != 0 {
		t.Fatalf("expected pointless user last: %+v", snapshot.Entries[2])
	}
	if first.DeltaPosition != 0 {
		t.Fatalf("first snapshot should have zero deltas, got %d", first.DeltaPosition)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshot not persisted")
	}
}

func TestLeaderboardRebuildDeltas(t *testing.T) {
	t.Parallel()

	users := &stubUserRepo{users: []user.User{
		{ID: "u1", Points: pointsWith(10)},
		{ID: "u2", Points: pointsWith(8)},
		{ID: "u3", Points: pointsWith(5)},
	}}
	repo := &stubLeaderboardRepo{snapshots: []leaderboard.Snapshot{{
		RoundNumber: 1,
		Entries: []leaderboard.Entry{
			{UserID: "u2", Position: 1},
			{UserID: "u1", Position: 2},
		},
	}}}
	svc := NewLeaderboardService(repo, users, nil)

	snapshot, err := svc.Rebuild(context.Background(), 2)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	byUser := map[string]leaderboard.Entry{}
	for _, entry := range snapshot.Entries {
		byUser[entry.UserID] = entry
	}
	if byUser["u1"].DeltaPosition != 1 {
		t.Fatalf("u1 climbed one place, got delta %d", byUser["u1"].DeltaPosition)
	}
	if byUser["u2"].DeltaPosition != -1 {
		t.Fatalf("u2 dropped one place, got delta %d", byUser["u2"].DeltaPosition)
	}
	if byUser["u3"].DeltaPosition != 0 {
		t.Fatalf("new user should have zero delta, got %d", byUser["u3"].DeltaPosition)
	}
}

func TestLeaderboardRebuildSameRoundKeepsDeltasZero(t *testing.T) {
	t.Parallel()

	users := &stubUserRepo{users: []user.User{{ID: "u1", Points: pointsWith(4)}}}
	repo := &stubLeaderboardRepo{snapshots: []leaderboard.Snapshot{{
		RoundNumber: 2,
		Entries:     []leaderboard.Entry{{UserID: "u1", Position: 1}},
	}}}
	svc := NewLeaderboardService(repo, users, nil)

	// Rebuilding the round already stored must not compare against itself.
	snapshot, err := svc.Rebuild(context.Background(), 2)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if snapshot.Entries[0].DeltaPosition != 0 {
		t.Fatalf("expected zero delta on same round rebuild, got %d", snapshot.Entries[0].DeltaPosition)
	}
}

func TestLeaderboardGetMissingRound(t *testing.T) {
	t.Parallel()

	svc := NewLeaderboardService(&stubLeaderboardRepo{}, &stubUserRepo{}, nil)

	if _, err := svc.Get(context.Background(), 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Latest(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty latest, got %v", err)
	}
}
