package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// MatchEventsFetcher pulls event detail for one finished match.
type MatchEventsFetcher interface {
	FetchMatchEvents(ctx context.Context, gameID string) ([]map[string]any, error)
}

// EnrichService attaches event detail to snapshot records incrementally:
// already-enriched records are skipped, failed fetches leave the record
// eligible for the next pass.
type EnrichService struct {
	store      fixture.Store
	fetchers   map[fixture.Source]MatchEventsFetcher
	maxWorkers int
	logger     *logging.Logger
}

func NewEnrichService(store fixture.Store, fetchers map[fixture.Source]MatchEventsFetcher, maxWorkers int, logger *logging.Logger) *EnrichService {
	if logger == nil {
		logger = logging.Default()
	}
	if fetchers == nil {
		fetchers = map[fixture.Source]MatchEventsFetcher{}
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &EnrichService{
		store:      store,
		fetchers:   fetchers,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// Sources lists the sources with a registered event fetcher, in stable order.
func (s *EnrichService) Sources() []fixture.Source {
	sources := make([]fixture.Source, 0, len(s.fetchers))
	for source := range s.fetchers {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}

// EnrichResult summarises one enrichment pass.
type EnrichResult struct {
	Total    int `json:"total"`
	Enriched int `json:"enriched"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// EnrichSource runs one incremental pass over the source's snapshot. Event
// fetches fan out over a bounded worker pool; the snapshot is written back
// once at the end so a crash mid-pass loses work but never corrupts state.
func (s *EnrichService) EnrichSource(ctx context.Context, source fixture.Source) (EnrichResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichService.EnrichSource")
	defer span.End()

	fetcher, ok := s.fetchers[source]
	if !ok {
		return EnrichResult{}, fmt.Errorf("%w: no events fetcher for source=%s", ErrInvalidInput, source)
	}

	snapshot, err := s.store.Load(ctx, source)
	if err != nil {
		if errors.Is(err, fixture.ErrSnapshotNotFound) {
			return EnrichResult{}, fmt.Errorf("%w: no snapshot for source=%s", ErrNotFound, source)
		}
		return EnrichResult{}, fmt.Errorf("load snapshot source=%s: %w", source, err)
	}

	result := EnrichResult{Total: len(snapshot.Fixtures)}

	type job struct {
		index  int
		gameID string
	}
	jobs := make([]job, 0, len(snapshot.Fixtures))
	for i := range snapshot.Fixtures {
		record := &snapshot.Fixtures[i]
		if record.Enriched {
			result.Skipped++
			continue
		}
		if !record.HasUsableGameID() {
			// No provider id to fetch with. Settle the record but keep it
			// unenriched so a later id assignment makes it eligible again.
			record.Events = []map[string]any{}
			record.Enriched = false
			result.Skipped++
			continue
		}
		jobs = append(jobs, job{index: i, gameID: record.GameID})
	}

	if len(jobs) > 0 {
		pool, err := ants.NewPool(s.maxWorkers)
		if err != nil {
			return EnrichResult{}, fmt.Errorf("create worker pool: %w", err)
		}
		defer pool.Release()

		var enriched atomic.Int32
		var failed atomic.Int32
		var workers sync.WaitGroup
		for _, item := range jobs {
			item := item
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()

				record := &snapshot.Fixtures[item.index]
				events, err := fetcher.FetchMatchEvents(ctx, item.gameID)
				if err != nil {
					record.Events = []map[string]any{}
					record.Enriched = false
					failed.Add(1)
					s.logger.WarnContext(ctx, "enrich fixture failed",
						"source", string(source),
						"game_id", item.gameID,
						"error", err,
					)
					return
				}
				record.Events = events
				record.Enriched = true
				enriched.Add(1)
			}); err != nil {
				workers.Done()
				return EnrichResult{}, fmt.Errorf("submit enrich task: %w", err)
			}
		}
		workers.Wait()

		result.Enriched = int(enriched.Load())
		result.Failed = int(failed.Load())
	}

	if err := s.store.Save(ctx, source, snapshot); err != nil {
		return EnrichResult{}, fmt.Errorf("save enriched snapshot source=%s: %w", source, err)
	}

	s.logger.InfoContext(ctx, "fixture enrichment pass finished",
		"source", string(source),
		"enriched", result.Enriched,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
