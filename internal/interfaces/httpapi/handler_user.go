package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/prediksibola/predictor-league/internal/domain/user"
	"github.com/prediksibola/predictor-league/internal/usecase"
)

func decodeJSONRequest(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: missing authenticated principal", usecase.ErrUnauthorized)
	}
	return principal, nil
}

// currentAccount resolves the authenticated principal to a stored account,
// provisioning one on first touch.
func (h *Handler) currentAccount(ctx context.Context) (user.User, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return user.User{}, err
	}

	return h.userService.Register(ctx, usecase.RegisterInput{
		Email:   principal.Email,
		Name:    principal.Name,
		Picture: principal.Picture,
	})
}

func (h *Handler) RegisterMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterMe")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req registerRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	account, err := h.userService.Register(ctx, usecase.RegisterInput{
		Email:    principal.Email,
		Name:     principal.Name,
		TeamName: req.TeamName,
		Picture:  principal.Picture,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, account)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMe")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, account)
}

func (h *Handler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMyProfile")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateProfileRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.userService.UpdateProfile(ctx, account.ID, usecase.UpdateProfileInput{
		Name:     req.Name,
		TeamName: req.TeamName,
		Picture:  req.Picture,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, updated)
}

func (h *Handler) SubmitMyRoundPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitMyRoundPredictions")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	round, err := parseRoundPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitRoundPredictionsRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.userService.SubmitRoundPredictions(ctx, account.ID, round, matchPredictionsFromRequest(req.Matches))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, updated)
}

func (h *Handler) AddMyPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddMyPrediction")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	round, err := parseRoundPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req matchPredictionRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.userService.AddPrediction(ctx, account.ID, round, matchPredictionFromRequest(req))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, updated)
}

func (h *Handler) RemoveMyPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveMyPrediction")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	round, err := parseRoundPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := strings.TrimSpace(r.PathValue("gameID"))
	if gameID == "" {
		writeError(ctx, w, fmt.Errorf("%w: game id is required", usecase.ErrInvalidInput))
		return
	}

	updated, err := h.userService.RemovePrediction(ctx, account.ID, round, gameID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, updated)
}

func (h *Handler) SubmitMySeasonPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitMySeasonPredictions")
	defer span.End()

	account, err := h.currentAccount(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req seasonPredictionsRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.userService.SubmitSeasonPredictions(ctx, account.ID, user.SeasonPredictions{
		TopScorer:      strings.TrimSpace(req.TopScorer),
		LeagueChampion: strings.TrimSpace(req.LeagueChampion),
		AssistKing:     strings.TrimSpace(req.AssistKing),
		RelegatedTeams: req.RelegatedTeams,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, updated)
}

func parseRoundPath(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("round"))
	round, err := strconv.Atoi(raw)
	if err != nil || round <= 0 {
		return 0, fmt.Errorf("%w: round must be a positive integer", usecase.ErrInvalidInput)
	}
	return round, nil
}

func matchPredictionFromRequest(req matchPredictionRequest) user.MatchPrediction {
	return user.MatchPrediction{
		GameID:    strings.TrimSpace(req.GameID),
		HomeTeam:  strings.TrimSpace(req.HomeTeam),
		AwayTeam:  strings.TrimSpace(req.AwayTeam),
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
	}
}

func matchPredictionsFromRequest(items []matchPredictionRequest) []user.MatchPrediction {
	out := make([]user.MatchPrediction, 0, len(items))
	for _, item := range items {
		out = append(out, matchPredictionFromRequest(item))
	}
	return out
}
