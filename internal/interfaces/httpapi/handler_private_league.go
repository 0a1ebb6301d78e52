package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/prediksibola/predictor-league/internal/domain/privateleague"
	"github.com/prediksibola/predictor-league/internal/usecase"
)

func (h *Handler) CreatePrivateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePrivateLeague")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createPrivateLeagueRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	var rules *privateleague.Rules
	if req.Rules != nil {
		rules = &privateleague.Rules{
			PointsForBullseye:      req.Rules.PointsForBullseye,
			PointsForWin:           req.Rules.PointsForWin,
			PointsForLoss:          req.Rules.PointsForLoss,
			PointsForTopScorer:     req.Rules.PointsForTopScorer,
			PointsForAssistKing:    req.Rules.PointsForAssistKing,
			PointsForChampion:      req.Rules.PointsForChampion,
			PointsPerRelegatedTeam: req.Rules.PointsPerRelegatedTeam,
		}
	}

	created, err := h.privateLeagueService.Create(ctx, account.ID, req.Name, rules)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, created)
}

func (h *Handler) ListMyPrivateLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPrivateLeagues")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagues, err := h.privateLeagueService.ListForUser(ctx, account.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"leagues": leagues})
}

func (h *Handler) GetPrivateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPrivateLeague")
	defer span.End()

	leagueID, err := parseLeagueIDPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	league, err := h.privateLeagueService.Get(ctx, leagueID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, league)
}

func (h *Handler) JoinPrivateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinPrivateLeague")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req joinPrivateLeagueRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	joined, err := h.privateLeagueService.Join(ctx, account.ID, req.Code)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, joined)
}

func (h *Handler) LeavePrivateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeavePrivateLeague")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID, err := parseLeagueIDPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	remaining, err := h.privateLeagueService.Leave(ctx, account.ID, leagueID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, remaining)
}

func (h *Handler) DeletePrivateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeletePrivateLeague")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID, err := parseLeagueIDPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.privateLeagueService.Delete(ctx, account.ID, leagueID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SyncPrivateLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncPrivateLeagueStandings")
	defer span.End()

	if _, err := h.currentAccount(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID, err := parseLeagueIDPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	synced, err := h.privateLeagueService.SyncStandings(ctx, leagueID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, synced)
}

func parseLeagueIDPath(r *http.Request) (string, error) {
	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	if leagueID == "" {
		return "", fmt.Errorf("%w: league id is required", usecase.ErrInvalidInput)
	}
	return leagueID, nil
}
