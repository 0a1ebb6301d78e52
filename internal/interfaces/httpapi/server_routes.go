package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/sources", handler.ListSources)
	mux.HandleFunc("GET /v1/sources/{source}/snapshot", handler.GetSourceSnapshot)
	mux.HandleFunc("GET /v1/sources/{source}/fixtures", handler.ListFixturesBySource)
	mux.HandleFunc("GET /v1/leaderboard", handler.GetLatestLeaderboard)
	mux.HandleFunc("GET /v1/leaderboard/rounds/{round}", handler.GetLeaderboardByRound)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedUserRoutes(mux, handler, verifier)
	registerAuthorizedPrivateLeagueRoutes(mux, handler, verifier)
	registerAuthorizedFantasyRoutes(mux, handler, verifier)
	registerAuthorizedSyncRoutes(mux, handler, verifier)
}

func registerAuthorizedUserRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/users/register", RequireAuth(verifier, http.HandlerFunc(handler.RegisterMe)))
	mux.Handle("GET /v1/users/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMe)))
	mux.Handle("PATCH /v1/users/me", RequireAuth(verifier, http.HandlerFunc(handler.UpdateMyProfile)))
	mux.Handle("PUT /v1/users/me/predictions/rounds/{round}", RequireAuth(verifier, http.HandlerFunc(handler.SubmitMyRoundPredictions)))
	mux.Handle("POST /v1/users/me/predictions/rounds/{round}", RequireAuth(verifier, http.HandlerFunc(handler.AddMyPrediction)))
	mux.Handle("DELETE /v1/users/me/predictions/rounds/{round}/{gameID}", RequireAuth(verifier, http.HandlerFunc(handler.RemoveMyPrediction)))
	mux.Handle("PUT /v1/users/me/predictions/season", RequireAuth(verifier, http.HandlerFunc(handler.SubmitMySeasonPredictions)))
}

func registerAuthorizedPrivateLeagueRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/private-leagues", RequireAuth(verifier, http.HandlerFunc(handler.CreatePrivateLeague)))
	mux.Handle("GET /v1/private-leagues", RequireAuth(verifier, http.HandlerFunc(handler.ListMyPrivateLeagues)))
	mux.Handle("GET /v1/private-leagues/{leagueID}", RequireAuth(verifier, http.HandlerFunc(handler.GetPrivateLeague)))
	mux.Handle("POST /v1/private-leagues/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinPrivateLeague)))
	mux.Handle("POST /v1/private-leagues/{leagueID}/leave", RequireAuth(verifier, http.HandlerFunc(handler.LeavePrivateLeague)))
	mux.Handle("DELETE /v1/private-leagues/{leagueID}", RequireAuth(verifier, http.HandlerFunc(handler.DeletePrivateLeague)))
	mux.Handle("POST /v1/private-leagues/{leagueID}/standings/sync", RequireAuth(verifier, http.HandlerFunc(handler.SyncPrivateLeagueStandings)))
}

func registerAuthorizedFantasyRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/fantasy/gameweek", RequireAuth(verifier, http.HandlerFunc(handler.GetFantasyGameweek)))
	mux.Handle("GET /v1/fantasy/fixtures", RequireAuth(verifier, http.HandlerFunc(handler.ListFantasyFixtures)))
	mux.Handle("GET /v1/fantasy/entries/{entryID}", RequireAuth(verifier, http.HandlerFunc(handler.GetFantasyEntry)))
	mux.Handle("GET /v1/fantasy/entries/{entryID}/picks", RequireAuth(verifier, http.HandlerFunc(handler.GetFantasyEntryPicks)))
}

func registerAuthorizedSyncRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/internal/sync/schedule", RequireAuth(verifier, http.HandlerFunc(handler.RunScheduleSyncDirect)))
	mux.Handle("POST /v1/internal/sync/pipeline", RequireAuth(verifier, http.HandlerFunc(handler.RunPipelineDirect)))
	mux.Handle("POST /v1/internal/sync/reconcile", RequireAuth(verifier, http.HandlerFunc(handler.RunReconcileDirect)))
	mux.Handle("POST /v1/internal/sync/sources/{source}", RequireAuth(verifier, http.HandlerFunc(handler.RefreshSourceSnapshot)))
	mux.Handle("POST /v1/internal/sync/sources/{source}/enrich", RequireAuth(verifier, http.HandlerFunc(handler.RunEnrichDirect)))
	mux.Handle("POST /v1/internal/sync/resolve-points", RequireAuth(verifier, http.HandlerFunc(handler.RunResolvePointsDirect)))
	mux.Handle("POST /v1/internal/sync/leaderboard/rounds/{round}", RequireAuth(verifier, http.HandlerFunc(handler.RebuildLeaderboard)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/bootstrap", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBootstrapJob)))
	mux.Handle("POST /v1/internal/jobs/sync-schedule", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncScheduleJob)))
	mux.Handle("POST /v1/internal/jobs/sync-live", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncLiveJob)))
}
