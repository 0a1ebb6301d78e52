package usecase

import (
	"context"
	"fmt"

	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// FantasyGateway is the official fantasy game API surface the service
// proxies for its users.
type FantasyGateway interface {
	CurrentGameweek(ctx context.Context) (int, error)
	GetFixtures(ctx context.Context) ([]map[string]any, error)
	GetEntry(ctx context.Context, entryID int) (map[string]any, error)
	GetEntryPicks(ctx context.Context, entryID, gameweek int) (map[string]any, error)
}

// FantasyService exposes official fantasy game data alongside the prediction
// endpoints so clients can show both in one place.
type FantasyService struct {
	gateway FantasyGateway
	logger  *logging.Logger
}

func NewFantasyService(gateway FantasyGateway, logger *logging.Logger) *FantasyService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FantasyService{gateway: gateway, logger: logger}
}

func (s *FantasyService) CurrentGameweek(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FantasyService.CurrentGameweek")
	defer span.End()

	if s.gateway == nil {
		return 0, fmt.Errorf("%w: fantasy gateway is not configured", ErrDependencyUnavailable)
	}
	return s.gateway.CurrentGameweek(ctx)
}

func (s *FantasyService) Fixtures(ctx context.Context) ([]map[string]any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FantasyService.Fixtures")
	defer span.End()

	if s.gateway == nil {
		return nil, fmt.Errorf("%w: fantasy gateway is not configured", ErrDependencyUnavailable)
	}
	return s.gateway.GetFixtures(ctx)
}

func (s *FantasyService) Entry(ctx context.Context, entryID int) (map[string]any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FantasyService.Entry")
	defer span.End()

	if s.gateway == nil {
		return nil, fmt.Errorf("%w: fantasy gateway is not configured", ErrDependencyUnavailable)
	}
	if entryID <= 0 {
		return nil, fmt.Errorf("%w: entry id must be greater than zero", ErrInvalidInput)
	}
	return s.gateway.GetEntry(ctx, entryID)
}

// EntryPicks returns a manager's picks for one gameweek. Gameweek zero means
// the current one.
func (s *FantasyService) EntryPicks(ctx context.Context, entryID, gameweek int) (map[string]any, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FantasyService.EntryPicks")
	defer span.End()

	if s.gateway == nil {
		return nil, fmt.Errorf("%w: fantasy gateway is not configured", ErrDependencyUnavailable)
	}
	if entryID <= 0 {
		return nil, fmt.Errorf("%w: entry id must be greater than zero", ErrInvalidInput)
	}
	if gameweek <= 0 {
		current, err := s.gateway.CurrentGameweek(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve current gameweek: %w", err)
		}
		gameweek = current
	}
	return s.gateway.GetEntryPicks(ctx, entryID, gameweek)
}
