package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/usecase"
)

func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSources")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"sources": h.snapshotService.Sources(),
	})
}

func (h *Handler) GetSourceSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSourceSnapshot")
	defer span.End()

	source, err := parseSourcePath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.snapshotService.GetSnapshot(ctx, source)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshot)
}

func (h *Handler) ListFixturesBySource(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixturesBySource")
	defer span.End()

	source, err := parseSourcePath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	query, err := parseFixtureQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.snapshotService.QueryFixtures(ctx, source, query)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshot)
}

func (h *Handler) RefreshSourceSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshSourceSnapshot")
	defer span.End()

	source, err := parseSourcePath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	snapshot, err := h.snapshotService.RefreshSource(ctx, source)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh source snapshot failed", "source", source, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshot)
}

func parseSourcePath(r *http.Request) (fixture.Source, error) {
	raw := r.PathValue("source")
	source, err := fixture.ParseSource(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return source, nil
}

func parseFixtureQuery(r *http.Request) (usecase.FixtureQuery, error) {
	values := r.URL.Query()

	query := usecase.FixtureQuery{
		Team:   strings.TrimSpace(values.Get("team")),
		Status: strings.TrimSpace(values.Get("status")),
	}

	round, err := parseOptionalIntParam(values.Get("round"), "round")
	if err != nil {
		return usecase.FixtureQuery{}, err
	}
	query.Round = round

	week, err := parseOptionalIntParam(values.Get("week"), "week")
	if err != nil {
		return usecase.FixtureQuery{}, err
	}
	query.Week = week

	return query, nil
}

func parseOptionalIntParam(raw, name string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}

	return &value, nil
}
