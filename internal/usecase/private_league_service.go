package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/privateleague"
	"github.com/prediksibola/predictor-league/internal/domain/user"
	"github.com/prediksibola/predictor-league/internal/platform/id"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// Invite codes avoid 0/O and 1/I so they survive being read aloud.
const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 6

const maxCodeAttempts = 5

// PrivateLeagueService manages invite-code gated leagues between users.
type PrivateLeagueService struct {
	leagues privateleague.Repository
	users   user.Repository
	idGen   id.Generator
	logger  *logging.Logger
	now     func() time.Time
	newCode func() (string, error)
}

func NewPrivateLeagueService(leagues privateleague.Repository, users user.Repository, idGen id.Generator, logger *logging.Logger) *PrivateLeagueService {
	if idGen == nil {
		idGen = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PrivateLeagueService{
		leagues: leagues,
		users:   users,
		idGen:   idGen,
		logger:  logger,
		now:     time.Now,
		newCode: newInviteCode,
	}
}

// Create opens a new league with the creator as admin and first manager.
// A nil rules pointer picks the default scoring.
func (s *PrivateLeagueService) Create(ctx context.Context, adminID, name string, rules *privateleague.Rules) (privateleague.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.Create")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return privateleague.League{}, fmt.Errorf("%w: league name is required", ErrInvalidInput)
	}

	admin, err := s.mustGetUser(ctx, adminID)
	if err != nil {
		return privateleague.League{}, err
	}

	leagueID, err := s.idGen.NewID()
	if err != nil {
		return privateleague.League{}, fmt.Errorf("generate league id: %w", err)
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return privateleague.League{}, err
	}

	leagueRules := privateleague.DefaultRules()
	if rules != nil {
		leagueRules = *rules
	}

	league := privateleague.League{
		ID:      leagueID,
		Name:    name,
		Rules:   leagueRules,
		Code:    code,
		AdminID: admin.ID,
		Managers: []privateleague.Manager{
			{UserID: admin.ID, TeamName: admin.TeamName},
		},
		CreatedAt: s.now().UTC(),
	}

	if err := s.leagues.Insert(ctx, league); err != nil {
		return privateleague.League{}, fmt.Errorf("insert league: %w", err)
	}

	s.logger.InfoContext(ctx, "private league created", "league_id", league.ID, "admin_id", admin.ID)
	return league, nil
}

// Join adds a user to the league behind the invite code. Joining a league
// the user already belongs to returns the league unchanged.
func (s *PrivateLeagueService) Join(ctx context.Context, userID, code string) (privateleague.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.Join")
	defer span.End()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return privateleague.League{}, fmt.Errorf("%w: invite code is required", ErrInvalidInput)
	}

	account, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return privateleague.League{}, err
	}

	league, found, err := s.leagues.GetByCode(ctx, code)
	if err != nil {
		return privateleague.League{}, fmt.Errorf("lookup league by code: %w", err)
	}
	if !found {
		return privateleague.League{}, fmt.Errorf("%w: no league with code %s", ErrNotFound, code)
	}
	if league.HasManager(account.ID) {
		return league, nil
	}

	league.Managers = append(league.Managers, privateleague.Manager{
		UserID:   account.ID,
		TeamName: account.TeamName,
	})

	if err := s.leagues.Replace(ctx, league); err != nil {
		return privateleague.League{}, fmt.Errorf("update league=%s: %w", league.ID, err)
	}
	return league, nil
}

// Leave removes a user from the league. The admin cannot leave; the league
// must be deleted instead.
func (s *PrivateLeagueService) Leave(ctx context.Context, userID, leagueID string) (privateleague.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.Leave")
	defer span.End()

	league, err := s.mustGetLeague(ctx, leagueID)
	if err != nil {
		return privateleague.League{}, err
	}
	if league.AdminID == userID {
		return privateleague.League{}, fmt.Errorf("%w: the admin cannot leave their own league", ErrInvalidInput)
	}
	if !league.HasManager(userID) {
		return privateleague.League{}, fmt.Errorf("%w: user=%s is not a member of league=%s", ErrNotFound, userID, leagueID)
	}

	kept := league.Managers[:0]
	for _, m := range league.Managers {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	league.Managers = kept

	if err := s.leagues.Replace(ctx, league); err != nil {
		return privateleague.League{}, fmt.Errorf("update league=%s: %w", league.ID, err)
	}
	return league, nil
}

// Delete removes a league. Only its admin may do so.
func (s *PrivateLeagueService) Delete(ctx context.Context, userID, leagueID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.Delete")
	defer span.End()

	league, err := s.mustGetLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	if league.AdminID != userID {
		return fmt.Errorf("%w: only the league admin may delete it", ErrUnauthorized)
	}

	if err := s.leagues.Delete(ctx, league.ID); err != nil {
		return fmt.Errorf("delete league=%s: %w", league.ID, err)
	}

	s.logger.InfoContext(ctx, "private league deleted", "league_id", league.ID)
	return nil
}

func (s *PrivateLeagueService) Get(ctx context.Context, leagueID string) (privateleague.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.Get")
	defer span.End()

	return s.mustGetLeague(ctx, leagueID)
}

// ListForUser returns every league the user belongs to.
func (s *PrivateLeagueService) ListForUser(ctx context.Context, userID string) ([]privateleague.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.ListForUser")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	leagues, err := s.leagues.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list leagues for user=%s: %w", userID, err)
	}
	return leagues, nil
}

// SyncStandings refreshes each manager's points and team name from their
// account, so league tables reflect the latest resolved rounds.
func (s *PrivateLeagueService) SyncStandings(ctx context.Context, leagueID string) (privateleague.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.SyncStandings")
	defer span.End()

	league, err := s.mustGetLeague(ctx, leagueID)
	if err != nil {
		return privateleague.League{}, err
	}

	for i, manager := range league.Managers {
		account, found, err := s.users.GetByID(ctx, manager.UserID)
		if err != nil {
			return privateleague.League{}, fmt.Errorf("get user=%s: %w", manager.UserID, err)
		}
		if !found {
			continue
		}
		league.Managers[i].TeamName = account.TeamName
		if account.Points != nil {
			league.Managers[i].Points = account.Points.TotalPoints
		}
	}

	if err := s.leagues.Replace(ctx, league); err != nil {
		return privateleague.League{}, fmt.Errorf("update league=%s: %w", league.ID, err)
	}
	return league, nil
}

func (s *PrivateLeagueService) mustGetLeague(ctx context.Context, leagueID string) (privateleague.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return privateleague.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	league, found, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return privateleague.League{}, fmt.Errorf("get league=%s: %w", leagueID, err)
	}
	if !found {
		return privateleague.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return league, nil
}

func (s *PrivateLeagueService) mustGetUser(ctx context.Context, userID string) (user.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	account, found, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user=%s: %w", userID, err)
	}
	if !found {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}
	return account, nil
}

func (s *PrivateLeagueService) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		_, taken, err := s.leagues.GetByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check invite code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique invite code", ErrDependencyUnavailable)
}

func newInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, inviteCodeLength)
	for i, b := range buf {
		code[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(code), nil
}
