package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/prediksibola/predictor-league/internal/domain/leaderboard"
	"github.com/prediksibola/predictor-league/internal/domain/user"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// LeaderboardService ranks every user by resolved points and tracks how
// positions move between rounds.
type LeaderboardService struct {
	snapshots leaderboard.Repository
	users     user.Repository
	logger    *logging.Logger
}

func NewLeaderboardService(snapshots leaderboard.Repository, users user.Repository, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{snapshots: snapshots, users: users, logger: logger}
}

// Rebuild recomputes the board for a round from the users' resolved points
// and persists it. Deltas compare against the latest stored snapshot for an
// earlier round; a first snapshot has all deltas at zero.
func (s *LeaderboardService) Rebuild(ctx context.Context, round int) (leaderboard.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Rebuild")
	defer span.End()

	if round <= 0 {
		return leaderboard.Snapshot{}, fmt.Errorf("%w: round must be greater than zero", ErrInvalidInput)
	}

	accounts, err := s.users.List(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("list users: %w", err)
	}

	entries := make([]leaderboard.Entry, 0, len(accounts))
	for _, account := range accounts {
		entries = append(entries, buildEntry(account))
	}
	rankEntries(entries)

	previous, found, err := s.snapshots.GetLatest(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("load previous leaderboard: %w", err)
	}
	if found && previous.RoundNumber < round {
		applyDeltas(entries, previous.Entries)
	}

	snapshot := leaderboard.Snapshot{RoundNumber: round, Entries: entries}
	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("save leaderboard round=%d: %w", round, err)
	}

	s.logger.InfoContext(ctx, "leaderboard rebuilt", "round", round, "entries", len(entries))
	return snapshot, nil
}

// Get returns the stored board for a round.
func (s *LeaderboardService) Get(ctx context.Context, round int) (leaderboard.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Get")
	defer span.End()

	snapshot, found, err := s.snapshots.GetByRound(ctx, round)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("load leaderboard round=%d: %w", round, err)
	}
	if !found {
		return leaderboard.Snapshot{}, fmt.Errorf("%w: no leaderboard for round=%d", ErrNotFound, round)
	}
	return snapshot, nil
}

// Latest returns the most recent stored board.
func (s *LeaderboardService) Latest(ctx context.Context) (leaderboard.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Latest")
	defer span.End()

	snapshot, found, err := s.snapshots.GetLatest(ctx)
	if err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("load latest leaderboard: %w", err)
	}
	if !found {
		return leaderboard.Snapshot{}, fmt.Errorf("%w: no leaderboard has been built yet", ErrNotFound)
	}
	return snapshot, nil
}

func buildEntry(account user.User) leaderboard.Entry {
	entry := leaderboard.Entry{
		UserID:   account.ID,
		Name:     account.Name,
		TeamName: account.TeamName,
	}
	if account.Points == nil {
		return entry
	}
	entry.TotalPoints = account.Points.TotalPoints
	for _, round := range account.Points.Matches {
		for _, match := range round {
			switch match.Points {
			case 3:
				entry.ExactPredictions++
			case 1:
				entry.CorrectPredictions++
			}
		}
	}
	return entry
}

// rankEntries sorts by total points, breaking ties by exact predictions then
// user id for a stable order, and assigns 1-based positions.
func rankEntries(entries []leaderboard.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].ExactPredictions != entries[j].ExactPredictions {
			return entries[i].ExactPredictions > entries[j].ExactPredictions
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
}

// applyDeltas sets each entry's movement relative to its previous position.
// Positive means the user climbed. Users absent from the previous snapshot
// stay at zero.
func applyDeltas(entries []leaderboard.Entry, previous []leaderboard.Entry) {
	prevPositions := make(map[string]int, len(previous))
	for _, entry := range previous {
		prevPositions[entry.UserID] = entry.Position
	}
	for i := range entries {
		if prev, ok := prevPositions[entries[i].UserID]; ok {
			entries[i].DeltaPosition = prev - entries[i].Position
		}
	}
}
