package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/prediksibola/predictor-league/internal/domain/jobscheduler"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
	"github.com/prediksibola/predictor-league/internal/usecase"
)

type Handler struct {
	snapshotService      *usecase.SnapshotService
	refreshService       *usecase.RefreshService
	reconcileService     *usecase.ReconcileService
	enrichService        *usecase.EnrichService
	pointsResolver       *usecase.PointsResolverService
	userService          *usecase.UserService
	privateLeagueService *usecase.PrivateLeagueService
	leaderboardService   *usecase.LeaderboardService
	fantasyService       *usecase.FantasyService
	jobOrchestrator      *usecase.JobOrchestratorService
	jobDispatchRepo      jobscheduler.Repository
	logger               *logging.Logger
	validator            *validator.Validate
}

func NewHandler(
	snapshotService *usecase.SnapshotService,
	refreshService *usecase.RefreshService,
	reconcileService *usecase.ReconcileService,
	enrichService *usecase.EnrichService,
	pointsResolver *usecase.PointsResolverService,
	userService *usecase.UserService,
	privateLeagueService *usecase.PrivateLeagueService,
	leaderboardService *usecase.LeaderboardService,
	fantasyService *usecase.FantasyService,
	jobOrchestrator *usecase.JobOrchestratorService,
	jobDispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		snapshotService:      snapshotService,
		refreshService:       refreshService,
		reconcileService:     reconcileService,
		enrichService:        enrichService,
		pointsResolver:       pointsResolver,
		userService:          userService,
		privateLeagueService: privateLeagueService,
		leaderboardService:   leaderboardService,
		fantasyService:       fantasyService,
		jobOrchestrator:      jobOrchestrator,
		jobDispatchRepo:      jobDispatchRepo,
		logger:               logger,
		validator:            validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	TeamName string `json:"team_name" validate:"omitempty,max=120"`
}

type updateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	TeamName *string `json:"team_name" validate:"omitempty,max=120"`
	Picture  *string `json:"picture" validate:"omitempty,max=500"`
}

type matchPredictionRequest struct {
	GameID    string `json:"game_id" validate:"required,max=80"`
	HomeTeam  string `json:"home_team" validate:"omitempty,max=120"`
	AwayTeam  string `json:"away_team" validate:"omitempty,max=120"`
	HomeScore *int   `json:"home_score" validate:"required,gte=0,lte=30"`
	AwayScore *int   `json:"away_score" validate:"required,gte=0,lte=30"`
}

type submitRoundPredictionsRequest struct {
	Matches []matchPredictionRequest `json:"matches" validate:"required,min=1,dive"`
}

type seasonPredictionsRequest struct {
	TopScorer      string   `json:"top_scorer" validate:"omitempty,max=120"`
	LeagueChampion string   `json:"league_champion" validate:"omitempty,max=120"`
	AssistKing     string   `json:"assist_king" validate:"omitempty,max=120"`
	RelegatedTeams []string `json:"relegated_teams" validate:"omitempty,max=3,dive,max=120"`
}

type privateLeagueRulesRequest struct {
	PointsForBullseye      int `json:"points_for_bullseye" validate:"gte=0,lte=100"`
	PointsForWin           int `json:"points_for_win" validate:"gte=0,lte=100"`
	PointsForLoss          int `json:"points_for_loss" validate:"gte=0,lte=100"`
	PointsForTopScorer     int `json:"points_for_top_scorer" validate:"gte=0,lte=100"`
	PointsForAssistKing    int `json:"points_for_assist_king" validate:"gte=0,lte=100"`
	PointsForChampion      int `json:"points_for_champion" validate:"gte=0,lte=100"`
	PointsPerRelegatedTeam int `json:"points_per_relegated_team" validate:"gte=0,lte=100"`
}

type createPrivateLeagueRequest struct {
	Name  string                     `json:"name" validate:"required,max=120"`
	Rules *privateLeagueRulesRequest `json:"rules"`
}

type joinPrivateLeagueRequest struct {
	Code string `json:"code" validate:"required,min=4,max=12"`
}

type internalJobSyncRequest struct {
	Source     string `json:"source"`
	Force      bool   `json:"force"`
	DispatchID string `json:"dispatch_id"`
}
