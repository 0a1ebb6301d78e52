package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/domain/user"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// PointsResolverService turns finished fixtures and stored predictions into
// per-user points. Every pass recomputes the whole season from the snapshot,
// so a corrected provider score self-heals on the next run.
type PointsResolverService struct {
	store    fixture.Store
	userRepo user.Repository
	logger   *logging.Logger
}

func NewPointsResolverService(store fixture.Store, userRepo user.Repository, logger *logging.Logger) *PointsResolverService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PointsResolverService{store: store, userRepo: userRepo, logger: logger}
}

// CalculatePoints scores one prediction against one result:
// 3 for the exact scoreline, 1 for the right outcome, 0 otherwise.
// Any missing side of the comparison scores 0.
func CalculatePoints(actualHome, actualAway, predHome, predAway *int) int {
	if actualHome == nil || actualAway == nil || predHome == nil || predAway == nil {
		return 0
	}
	if *actualHome == *predHome && *actualAway == *predAway {
		return 3
	}
	if matchOutcome(*actualHome, *actualAway) == matchOutcome(*predHome, *predAway) {
		return 1
	}
	return 0
}

func matchOutcome(home, away int) string {
	switch {
	case home == away:
		return "draw"
	case home > away:
		return "home"
	default:
		return "away"
	}
}

// ResolveResult summarises one resolution pass.
type ResolveResult struct {
	Users   int `json:"users"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ResolveAllUsers recomputes and saves points for every user. A failure on
// one user is logged and skipped so the rest of the pass still lands.
func (s *PointsResolverService) ResolveAllUsers(ctx context.Context) (ResolveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsResolverService.ResolveAllUsers")
	defer span.End()

	snapshot, err := s.store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		if errors.Is(err, fixture.ErrSnapshotNotFound) {
			return ResolveResult{}, fmt.Errorf("%w: no fixture snapshot to resolve points from", ErrNotFound)
		}
		return ResolveResult{}, fmt.Errorf("load fixtures for points resolution: %w", err)
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("list users for points resolution: %w", err)
	}

	result := ResolveResult{Users: len(users)}
	for _, account := range users {
		points := ResolveUserPoints(snapshot.Fixtures, account)
		if err := s.userRepo.UpdatePoints(ctx, account.ID, points); err != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "save resolved points failed",
				"user_id", account.ID,
				"error", err,
			)
			continue
		}
		result.Updated++
	}

	s.logger.InfoContext(ctx, "points resolved",
		"users", result.Users,
		"updated", result.Updated,
		"failed", result.Failed,
	)
	return result, nil
}

// ResolveUserPoints scores one user's predictions across the full season.
// Rounds are processed in ascending order; last_round_points ends up holding
// the final processed round's sum, total_points the sum of all rounds, and
// season points carry over from the user's current points untouched.
func ResolveUserPoints(fixtures []fixture.Record, account user.User) user.Points {
	byRound := make(map[int][]fixture.Record)
	for _, record := range fixtures {
		byRound[record.Round] = append(byRound[record.Round], record)
	}
	rounds := make([]int, 0, len(byRound))
	for round := range byRound {
		rounds = append(rounds, round)
	}
	sort.Ints(rounds)

	points := user.Points{Matches: make(map[string][]user.MatchPoints, len(rounds))}
	for _, round := range rounds {
		roundKey := strconv.Itoa(round)
		roundPoints := make([]user.MatchPoints, 0, len(byRound[round]))
		roundSum := 0

		for _, record := range byRound[round] {
			prediction := findPrediction(account.Predictions, roundKey, record.Key())
			var predHome, predAway *int
			if prediction != nil {
				predHome = prediction.HomeScore
				predAway = prediction.AwayScore
			}

			earned := CalculatePoints(record.HomeScore, record.AwayScore, predHome, predAway)
			roundPoints = append(roundPoints, user.MatchPoints{GameID: record.Key(), Points: earned})
			roundSum += earned
		}

		points.Matches[roundKey] = roundPoints
		points.TotalPoints += roundSum
		points.LastRoundPoints = roundSum
	}

	if account.Points != nil {
		points.SeasonPoints = account.Points.SeasonPoints
	}
	return points
}

func findPrediction(predictions user.Predictions, roundKey, fixtureKey string) *user.MatchPrediction {
	if predictions == nil || fixtureKey == "" {
		return nil
	}
	round, ok := predictions[roundKey]
	if !ok {
		return nil
	}
	for i := range round.Matches {
		if round.Matches[i].GameID == fixtureKey {
			return &round.Matches[i]
		}
	}
	return nil
}
