// Package app assembles the service: storage, provider clients, usecase
// services and the HTTP router, all driven by config.
package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/prediksibola/predictor-league/external/anubis"
	"github.com/prediksibola/predictor-league/external/fbref"
	"github.com/prediksibola/predictor-league/external/fotmob"
	"github.com/prediksibola/predictor-league/external/fpl"
	"github.com/prediksibola/predictor-league/external/jobqueue"
	"github.com/prediksibola/predictor-league/external/whoscored"
	"github.com/prediksibola/predictor-league/internal/config"
	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/domain/jobscheduler"
	"github.com/prediksibola/predictor-league/internal/domain/leaderboard"
	"github.com/prediksibola/predictor-league/internal/domain/privateleague"
	"github.com/prediksibola/predictor-league/internal/domain/user"
	cacherepo "github.com/prediksibola/predictor-league/internal/infrastructure/repository/cache"
	"github.com/prediksibola/predictor-league/internal/infrastructure/repository/memory"
	"github.com/prediksibola/predictor-league/internal/infrastructure/repository/postgres"
	"github.com/prediksibola/predictor-league/internal/infrastructure/snapshot"
	"github.com/prediksibola/predictor-league/internal/interfaces/httpapi"
	basecache "github.com/prediksibola/predictor-league/internal/platform/cache"
	idgen "github.com/prediksibola/predictor-league/internal/platform/id"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
	"github.com/prediksibola/predictor-league/internal/platform/resilience"
	"github.com/prediksibola/predictor-league/internal/usecase"
)

type repositories struct {
	snapshotStore  fixture.Store
	users          user.Repository
	privateLeagues privateleague.Repository
	leaderboards   leaderboard.Repository
	jobDispatches  jobscheduler.Repository
}

// NewHTTPServer wires the full application and returns the server plus a
// cleanup func for resources that outlive request handling.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, cleanup, err := buildRepositories(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.snapshotStore = cacherepo.NewSnapshotStore(repos.snapshotStore, store)
		repos.leaderboards = cacherepo.NewLeaderboardRepository(repos.leaderboards, store)
	}

	scheduleFetchers, eventFetchers := buildProviderClients(cfg, logger)

	snapshotSvc := usecase.NewSnapshotService(repos.snapshotStore, scheduleFetchers, logger)
	reconcileSvc := usecase.NewReconcileService(repos.snapshotStore, logger)
	enrichSvc := usecase.NewEnrichService(repos.snapshotStore, eventFetchers, cfg.EnrichMaxWorkers, logger)
	pointsResolver := usecase.NewPointsResolverService(repos.snapshotStore, repos.users, logger)
	refreshSvc := usecase.NewRefreshService(snapshotSvc, reconcileSvc, enrichSvc, pointsResolver, cfg.RefreshMaxWorkers, logger)
	userSvc := usecase.NewUserService(repos.users, idgen.NewRandomGenerator(), logger)
	privateLeagueSvc := usecase.NewPrivateLeagueService(repos.privateLeagues, repos.users, idgen.NewRandomGenerator(), logger)
	leaderboardSvc := usecase.NewLeaderboardService(repos.leaderboards, repos.users, logger)

	var gateway usecase.FantasyGateway
	if cfg.FPLEnabled {
		gateway = fpl.NewClient(fpl.ClientConfig{
			BaseURL:      cfg.FPLBaseURL,
			CookieHeader: cfg.FPLCookieHeader,
			CookieFile:   cfg.FPLCookieFile,
			Timeout:      cfg.FPLTimeout,
			MaxRetries:   cfg.FPLMaxRetries,
			Logger:       logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FPLCircuitEnabled,
				FailureThreshold: cfg.FPLCircuitFailureCount,
				OpenTimeout:      cfg.FPLCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
			},
		})
	}
	fantasySvc := usecase.NewFantasyService(gateway, logger)

	queue := usecase.NewNoopJobQueue()
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	orchestrator := usecase.NewJobOrchestratorService(
		refreshSvc,
		snapshotSvc,
		leaderboardSvc,
		queue,
		repos.jobDispatches,
		usecase.JobOrchestratorConfig{
			ScheduleInterval: cfg.JobScheduleInterval,
			LiveInterval:     cfg.JobLiveInterval,
			PreKickoffLead:   cfg.JobPreKickoffLead,
		},
		logger,
	)

	verifier := anubis.NewClient(anubis.ClientConfig{
		BaseURL:        cfg.AnubisBaseURL,
		IntrospectPath: cfg.AnubisIntrospectURL,
		Timeout:        cfg.AnubisTimeout,
		Logger:         logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.AnubisCircuitEnabled,
			FailureThreshold: cfg.AnubisCircuitFailureCount,
			OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
		},
	})

	handler := httpapi.NewHandler(
		snapshotSvc,
		refreshSvc,
		reconcileSvc,
		enrichSvc,
		pointsResolver,
		userSvc,
		privateLeagueSvc,
		leaderboardSvc,
		fantasySvc,
		orchestrator,
		repos.jobDispatches,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

func buildRepositories(cfg config.Config) (repositories, func(), error) {
	if cfg.SnapshotStorage == config.SnapshotStorageMemory {
		return repositories{
			snapshotStore:  memory.NewSnapshotStore(),
			users:          memory.NewUserRepository(),
			privateLeagues: memory.NewPrivateLeagueRepository(),
			leaderboards:   memory.NewLeaderboardRepository(),
			jobDispatches:  memory.NewJobDispatchRepository(),
		}, func() {}, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return repositories{}, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}

	repos := repositories{
		snapshotStore:  postgres.NewSnapshotStore(db),
		users:          postgres.NewUserRepository(db),
		privateLeagues: postgres.NewPrivateLeagueRepository(db),
		leaderboards:   postgres.NewLeaderboardRepository(db),
		jobDispatches:  postgres.NewJobDispatchRepository(db),
	}

	if cfg.SnapshotStorage == config.SnapshotStorageFile {
		fileStore, err := snapshot.NewFileStore(cfg.SnapshotDir)
		if err != nil {
			cleanup()
			return repositories{}, nil, fmt.Errorf("open snapshot dir: %w", err)
		}
		repos.snapshotStore = fileStore
	}

	return repos, cleanup, nil
}

func buildProviderClients(cfg config.Config, logger *logging.Logger) (map[fixture.Source]usecase.ScheduleFetcher, map[fixture.Source]usecase.MatchEventsFetcher) {
	scheduleFetchers := make(map[fixture.Source]usecase.ScheduleFetcher)
	eventFetchers := make(map[fixture.Source]usecase.MatchEventsFetcher)

	fotmobClient := fotmob.NewClient(fotmob.ClientConfig{
		BaseURL:    cfg.FotMobBaseURL,
		LeagueID:   cfg.FotMobLeagueID,
		League:     cfg.FotMobLeague,
		Season:     cfg.FotMobSeason,
		Timeout:    cfg.FotMobTimeout,
		MaxRetries: cfg.FotMobMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FotMobCircuitEnabled,
			FailureThreshold: cfg.FotMobCircuitFailureCount,
			OpenTimeout:      cfg.FotMobCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FotMobCircuitHalfOpenMaxReq,
		},
	})
	scheduleFetchers[fixture.SourceFotMob] = fotmobClient
	eventFetchers[fixture.SourceFotMob] = fotmobClient

	if cfg.WhoScoredEnabled {
		scheduleFetchers[fixture.SourceWhoScored] = whoscored.NewClient(whoscored.ClientConfig{
			FeedURL:    cfg.WhoScoredFeedURL,
			Timeout:    cfg.WhoScoredTimeout,
			MaxRetries: cfg.WhoScoredMaxRetries,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WhoScoredCircuitEnabled,
				FailureThreshold: cfg.WhoScoredCircuitFailureCount,
				OpenTimeout:      cfg.WhoScoredCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WhoScoredCircuitHalfOpenMaxReq,
			},
		})
	}

	if cfg.FBrefEnabled {
		fbrefClient := fbref.NewClient(fbref.ClientConfig{
			ScheduleURL: cfg.FBrefScheduleURL,
			EventsURL:   cfg.FBrefEventsURL,
			Timeout:     cfg.FBrefTimeout,
			MaxRetries:  cfg.FBrefMaxRetries,
			Logger:      logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FBrefCircuitEnabled,
				FailureThreshold: cfg.FBrefCircuitFailureCount,
				OpenTimeout:      cfg.FBrefCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FBrefCircuitHalfOpenMaxReq,
			},
		})
		scheduleFetchers[fixture.SourceFBref] = fbrefClient
		eventFetchers[fixture.SourceFBref] = fbrefClient
	}

	return scheduleFetchers, eventFetchers
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	return db, nil
}
