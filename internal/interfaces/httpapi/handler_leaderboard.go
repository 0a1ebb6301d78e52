package httpapi

import (
	"net/http"
)

func (h *Handler) GetLatestLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLatestLeaderboard")
	defer span.End()

	snapshot, err := h.leaderboardService.Latest(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshot)
}

func (h *Handler) GetLeaderboardByRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboardByRound")
	defer span.End()

	round, err := parseRoundPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.leaderboardService.Get(ctx, round)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshot)
}

func (h *Handler) RebuildLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RebuildLeaderboard")
	defer span.End()

	round, err := parseRoundPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.leaderboardService.Rebuild(ctx, round)
	if err != nil {
		h.logger.WarnContext(ctx, "rebuild leaderboard failed", "round", round, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshot)
}
