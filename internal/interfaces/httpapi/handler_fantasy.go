package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prediksibola/predictor-league/internal/usecase"
)

func (h *Handler) GetFantasyGameweek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFantasyGameweek")
	defer span.End()

	gameweek, err := h.fantasyService.CurrentGameweek(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"gameweek": gameweek})
}

func (h *Handler) ListFantasyFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFantasyFixtures")
	defer span.End()

	fixtures, err := h.fantasyService.Fixtures(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"fixtures": fixtures})
}

func (h *Handler) GetFantasyEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFantasyEntry")
	defer span.End()

	entryID, err := parseEntryIDPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, err := h.fantasyService.Entry(ctx, entryID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entry)
}

func (h *Handler) GetFantasyEntryPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFantasyEntryPicks")
	defer span.End()

	entryID, err := parseEntryIDPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	gameweek, err := parseOptionalIntParam(r.URL.Query().Get("gameweek"), "gameweek")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	week := 0
	if gameweek != nil {
		week = *gameweek
	}

	picks, err := h.fantasyService.EntryPicks(ctx, entryID, week)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, picks)
}

func parseEntryIDPath(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("entryID"))
	entryID, err := strconv.Atoi(raw)
	if err != nil || entryID <= 0 {
		return 0, fmt.Errorf("%w: entry id must be a positive integer", usecase.ErrInvalidInput)
	}
	return entryID, nil
}
