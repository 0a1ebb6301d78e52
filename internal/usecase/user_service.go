package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/user"
	"github.com/prediksibola/predictor-league/internal/platform/id"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// UserService manages accounts, their predictions and their resolved points.
type UserService struct {
	repo   user.Repository
	idGen  id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewUserService(repo user.Repository, idGen id.Generator, logger *logging.Logger) *UserService {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &UserService{repo: repo, idGen: idGen, logger: logger, now: time.Now}
}

// RegisterInput carries the fields a new account may provide.
type RegisterInput struct {
	Email    string
	Name     string
	TeamName string
	Picture  string
}

// Register creates an account, or returns the existing one when the email is
// already registered. New accounts start with empty predictions and zeroed
// points.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	existing, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return user.User{}, fmt.Errorf("lookup user by email: %w", err)
	}
	if found {
		return existing, nil
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return user.User{}, fmt.Errorf("generate user id: %w", err)
	}

	now := s.now().UTC()
	account := user.User{
		ID:          newID,
		Email:       email,
		Name:        strings.TrimSpace(input.Name),
		TeamName:    strings.TrimSpace(input.TeamName),
		Picture:     strings.TrimSpace(input.Picture),
		Predictions: user.Predictions{},
		SeasonPredictions: &user.SeasonPredictions{
			RelegatedTeams: []string{},
		},
		Points: &user.Points{
			Matches: map[string][]user.MatchPoints{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, account); err != nil {
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", account.ID)
	return account, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.Get")
	defer span.End()

	return s.mustGet(ctx, userID)
}

func (s *UserService) List(ctx context.Context) ([]user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.List")
	defer span.End()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateProfileInput updates only the fields that are set.
type UpdateProfileInput struct {
	Name     *string
	TeamName *string
	Picture  *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.UpdateProfile")
	defer span.End()

	account, err := s.mustGet(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	if input.Name != nil {
		account.Name = strings.TrimSpace(*input.Name)
	}
	if input.TeamName != nil {
		account.TeamName = strings.TrimSpace(*input.TeamName)
	}
	if input.Picture != nil {
		account.Picture = strings.TrimSpace(*input.Picture)
	}
	account.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateProfile(ctx, account); err != nil {
		return user.User{}, fmt.Errorf("update profile user=%s: %w", userID, err)
	}
	return account, nil
}

// SubmitRoundPredictions replaces the user's predictions for one round.
func (s *UserService) SubmitRoundPredictions(ctx context.Context, userID string, round int, matches []user.MatchPrediction) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.SubmitRoundPredictions")
	defer span.End()

	if round <= 0 {
		return user.User{}, fmt.Errorf("%w: round must be greater than zero", ErrInvalidInput)
	}
	for _, match := range matches {
		if strings.TrimSpace(match.GameID) == "" {
			return user.User{}, fmt.Errorf("%w: every prediction needs a game id", ErrInvalidInput)
		}
	}

	account, err := s.mustGet(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	now := s.now().UTC()
	for i := range matches {
		if matches[i].CreatedAt.IsZero() {
			matches[i].CreatedAt = now
		}
	}

	if account.Predictions == nil {
		account.Predictions = user.Predictions{}
	}
	account.Predictions[strconv.Itoa(round)] = user.RoundPredictions{Matches: matches}

	if err := s.repo.UpdatePredictions(ctx, account.ID, account.Predictions); err != nil {
		return user.User{}, fmt.Errorf("update predictions user=%s round=%d: %w", userID, round, err)
	}
	return account, nil
}

// AddPrediction appends one prediction to a round, replacing any existing
// prediction for the same fixture.
func (s *UserService) AddPrediction(ctx context.Context, userID string, round int, prediction user.MatchPrediction) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.AddPrediction")
	defer span.End()

	if round <= 0 || strings.TrimSpace(prediction.GameID) == "" {
		return user.User{}, fmt.Errorf("%w: round and game id are required", ErrInvalidInput)
	}

	account, err := s.mustGet(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	if prediction.CreatedAt.IsZero() {
		prediction.CreatedAt = s.now().UTC()
	}
	if account.Predictions == nil {
		account.Predictions = user.Predictions{}
	}

	roundKey := strconv.Itoa(round)
	roundPredictions := account.Predictions[roundKey]
	replaced := false
	for i := range roundPredictions.Matches {
		if roundPredictions.Matches[i].GameID == prediction.GameID {
			roundPredictions.Matches[i] = prediction
			replaced = true
			break
		}
	}
	if !replaced {
		roundPredictions.Matches = append(roundPredictions.Matches, prediction)
	}
	account.Predictions[roundKey] = roundPredictions

	if err := s.repo.UpdatePredictions(ctx, account.ID, account.Predictions); err != nil {
		return user.User{}, fmt.Errorf("add prediction user=%s round=%d: %w", userID, round, err)
	}
	return account, nil
}

// RemovePrediction drops one prediction from a round by fixture id.
func (s *UserService) RemovePrediction(ctx context.Context, userID string, round int, gameID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.RemovePrediction")
	defer span.End()

	account, err := s.mustGet(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	roundKey := strconv.Itoa(round)
	roundPredictions, ok := account.Predictions[roundKey]
	if !ok {
		return account, nil
	}

	kept := roundPredictions.Matches[:0]
	for _, match := range roundPredictions.Matches {
		if match.GameID != gameID {
			kept = append(kept, match)
		}
	}
	roundPredictions.Matches = kept
	account.Predictions[roundKey] = roundPredictions

	if err := s.repo.UpdatePredictions(ctx, account.ID, account.Predictions); err != nil {
		return user.User{}, fmt.Errorf("remove prediction user=%s round=%d: %w", userID, round, err)
	}
	return account, nil
}

// SubmitSeasonPredictions replaces the user's season-long picks.
func (s *UserService) SubmitSeasonPredictions(ctx context.Context, userID string, picks user.SeasonPredictions) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UserService.SubmitSeasonPredictions")
	defer span.End()

	account, err := s.mustGet(ctx, userID)
	if err != nil {
		return user.User{}, err
	}

	if picks.CreatedAt == nil {
		now := s.now().UTC()
		picks.CreatedAt = &now
	}
	if picks.RelegatedTeams == nil {
		picks.RelegatedTeams = []string{}
	}

	if err := s.repo.UpdateSeasonPredictions(ctx, account.ID, picks); err != nil {
		return user.User{}, fmt.Errorf("update season predictions user=%s: %w", userID, err)
	}
	account.SeasonPredictions = &picks
	return account, nil
}

func (s *UserService) mustGet(ctx context.Context, userID string) (user.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	account, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user=%s: %w", userID, err)
	}
	if !found {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}
	return account, nil
}
