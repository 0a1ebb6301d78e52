package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/prediksibola/predictor-league/internal/domain/user"
)

func TestUserServiceRegisterCreatesAccount(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{}
	svc := NewUserService(repo, nil, nil)

	account, err := svc.Register(context.Background(), RegisterInput{
		Email:    " Alice@Example.COM ",
		Name:     "Alice",
		TeamName: "Alice FC",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Fatalf("email not normalised, got %q", account.Email)
	}
	if account.ID == "" {
		t.Fatal("expected a generated id")
	}
	if account.Predictions == nil {
		t.Fatal("expected initialised predictions")
	}
	if account.Points == nil || account.Points.Matches == nil {
		t.Fatal("expected zeroed points")
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one stored user, got %d", len(repo.users))
	}
}

func TestUserServiceRegisterReturnsExisting(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: []user.User{{ID: "u1", Email: "alice@example.com", Name: "Alice"}}}
	svc := NewUserService(repo, nil, nil)

	account, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Name: "Someone Else"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.ID != "u1" || account.Name != "Alice" {
		t.Fatalf("expected the existing account unchanged, got %+v", account)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected no new user, got %d", len(repo.users))
	}
}

func TestUserServiceRegisterRejectsBadEmail(t *testing.T) {
	t.Parallel()

	svc := NewUserService(&stubUserRepo{}, nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserServiceGetUnknownUser(t *testing.T) {
	t.Parallel()

	svc := NewUserService(&stubUserRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserServiceSubmitRoundPredictionsReplacesRound(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: []user.User{{
		ID:    "u1",
		Email: "alice@example.com",
		Predictions: user.Predictions{"3": {Matches: []user.MatchPrediction{
			{GameID: "old", HomeScore: intPtr(0), AwayScore: intPtr(0)},
		}}},
	}}}
	svc := NewUserService(repo, nil, nil)

	account, err := svc.SubmitRoundPredictions(context.Background(), "u1", 3, []user.MatchPrediction{
		{GameID: "m1", HomeScore: intPtr(2), AwayScore: intPtr(1)},
		{GameID: "m2", HomeScore: intPtr(0), AwayScore: intPtr(0)},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	round := account.Predictions["3"]
	if len(round.Matches) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(round.Matches))
	}
	if round.Matches[0].GameID != "m1" || round.Matches[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected first prediction: %+v", round.Matches[0])
	}
	if got := repo.users[0].Predictions["3"]; len(got.Matches) != 2 {
		t.Fatalf("predictions not persisted, got %+v", got)
	}
}

func TestUserServiceSubmitRoundPredictionsValidation(t *testing.T) {
	t.Parallel()

	svc := NewUserService(&stubUserRepo{users: []user.User{{ID: "u1"}}}, nil, nil)

	_, err := svc.SubmitRoundPredictions(context.Background(), "u1", 0, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for round 0, got %v", err)
	}

	_, err = svc.SubmitRoundPredictions(context.Background(), "u1", 1, []user.MatchPrediction{{GameID: " "}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank game id, got %v", err)
	}
}

func TestUserServiceAddPrediction(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: []user.User{{ID: "u1"}}}
	svc := NewUserService(repo, nil, nil)

	ctx := context.Background()
	if _, err := svc.AddPrediction(ctx, "u1", 2, user.MatchPrediction{GameID: "m1", HomeScore: intPtr(1), AwayScore: intPtr(0)}); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := svc.AddPrediction(ctx, "u1", 2, user.MatchPrediction{GameID: "m2", HomeScore: intPtr(0), AwayScore: intPtr(2)}); err != nil {
		t.Fatalf("add second: %v", err)
	}

	// Adding again for the same fixture replaces the earlier guess.
	account, err := svc.AddPrediction(ctx, "u1", 2, user.MatchPrediction{GameID: "m1", HomeScore: intPtr(3), AwayScore: intPtr(3)})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	round := account.Predictions["2"]
	if len(round.Matches) != 2 {
		t.Fatalf("expected 2 predictions after replace, got %d", len(round.Matches))
	}
	if *round.Matches[0].HomeScore != 3 || *round.Matches[0].AwayScore != 3 {
		t.Fatalf("replace did not overwrite, got %+v", round.Matches[0])
	}
}

func TestUserServiceRemovePrediction(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: []user.User{{
		ID: "u1",
		Predictions: user.Predictions{"2": {Matches: []user.MatchPrediction{
			{GameID: "m1"},
			{GameID: "m2"},
		}}},
	}}}
	svc := NewUserService(repo, nil, nil)

	account, err := svc.RemovePrediction(context.Background(), "u1", 2, "m1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	round := account.Predictions["2"]
	if len(round.Matches) != 1 || round.Matches[0].GameID != "m2" {
		t.Fatalf("unexpected remaining predictions: %+v", round.Matches)
	}

	// Removing from a round with no predictions is a no-op.
	if _, err := svc.RemovePrediction(context.Background(), "u1", 9, "m1"); err != nil {
		t.Fatalf("remove from empty round: %v", err)
	}
}

func TestUserServiceUpdateProfilePartial(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: []user.User{{ID: "u1", Name: "Alice", TeamName: "Alice FC"}}}
	svc := NewUserService(repo, nil, nil)

	newTeam := "Wanderers"
	account, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileInput{TeamName: &newTeam})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if account.Name != "Alice" || account.TeamName != "Wanderers" {
		t.Fatalf("expected only the team name to change, got %+v", account)
	}
}

func TestUserServiceSubmitSeasonPredictions(t *testing.T) {
	t.Parallel()

	repo := &stubUserRepo{users: []user.User{{ID: "u1"}}}
	svc := NewUserService(repo, nil, nil)

	account, err := svc.SubmitSeasonPredictions(context.Background(), "u1", user.SeasonPredictions{
		TopScorer:      "Haaland",
		LeagueChampion: "Arsenal",
	})
	if err != nil {
		t.Fatalf("submit season: %v", err)
	}
	if account.SeasonPredictions == nil || account.SeasonPredictions.CreatedAt == nil {
		t.Fatal("expected a stamped season prediction")
	}
	if account.SeasonPredictions.RelegatedTeams == nil {
		t.Fatal("expected relegated teams to be initialised")
	}
	if repo.users[0].SeasonPredictions == nil || repo.users[0].SeasonPredictions.TopScorer != "Haaland" {
		t.Fatalf("season predictions not persisted: %+v", repo.users[0].SeasonPredictions)
	}
}
