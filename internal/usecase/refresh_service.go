package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// RefreshService drives the full aggregation pipeline: fetch snapshots from
// every provider, align cross-source ids, enrich finished matches and
// recompute user points. Provider failures are isolated so one broken feed
// never blocks the others.
type RefreshService struct {
	snapshots  *SnapshotService
	reconciler *ReconcileService
	enricher   *EnrichService
	resolver   *PointsResolverService
	maxWorkers int
	logger     *logging.Logger
}

func NewRefreshService(
	snapshots *SnapshotService,
	reconciler *ReconcileService,
	enricher *EnrichService,
	resolver *PointsResolverService,
	maxWorkers int,
	logger *logging.Logger,
) *RefreshService {
	if maxWorkers <= 0 {
		maxWorkers = 3
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		snapshots:  snapshots,
		reconciler: reconciler,
		enricher:   enricher,
		resolver:   resolver,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// RefreshReport summarises one fan-out over the registered sources.
type RefreshReport struct {
	Refreshed []fixture.Source          `json:"refreshed"`
	Failed    map[fixture.Source]string `json:"failed,omitempty"`
}

// RefreshAll fetches every registered source concurrently. It returns an
// error only when no source could be refreshed at all.
func (s *RefreshService) RefreshAll(ctx context.Context) (RefreshReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RefreshAll")
	defer span.End()

	sources := s.snapshots.Sources()
	report := RefreshReport{Failed: map[fixture.Source]string{}}

	var mu sync.Mutex
	workers := pool.New().WithContext(ctx).WithMaxGoroutines(s.maxWorkers)
	for _, source := range sources {
		workers.Go(func(ctx context.Context) error {
			_, err := s.snapshots.RefreshSource(ctx, source)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.WarnContext(ctx, "source refresh failed", "source", string(source), "error", err)
				report.Failed[source] = err.Error()
				return nil
			}
			report.Refreshed = append(report.Refreshed, source)
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return report, fmt.Errorf("refresh sources: %w", err)
	}

	if len(sources) > 0 && len(report.Refreshed) == 0 {
		return report, fmt.Errorf("%w: every source refresh failed", ErrDependencyUnavailable)
	}
	return report, nil
}

// PipelineReport summarises one end to end aggregation run.
type PipelineReport struct {
	Refresh   RefreshReport                   `json:"refresh"`
	Reconcile ReconcileResult                 `json:"reconcile"`
	Enrich    map[fixture.Source]EnrichResult `json:"enrich,omitempty"`
	Resolve   ResolveResult                   `json:"resolve"`
}

// RunPipeline executes refresh, reconciliation, enrichment and points
// resolution in order. Later stages still run when an earlier stage only
// partially succeeded; the report carries what each stage managed.
func (s *RefreshService) RunPipeline(ctx context.Context) (PipelineReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RunPipeline")
	defer span.End()

	report := PipelineReport{Enrich: map[fixture.Source]EnrichResult{}}

	refresh, err := s.RefreshAll(ctx)
	report.Refresh = refresh
	if err != nil {
		return report, err
	}

	reconcile, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	report.Reconcile = reconcile

	for _, source := range s.enricher.Sources() {
		result, err := s.enricher.EnrichSource(ctx, source)
		if err != nil {
			s.logger.WarnContext(ctx, "enrichment failed", "source", string(source), "error", err)
			continue
		}
		report.Enrich[source] = result
	}

	resolve, err := s.resolver.ResolveAllUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("resolve points: %w", err)
	}
	report.Resolve = resolve

	s.logger.InfoContext(ctx, "aggregation pipeline finished",
		"refreshed", len(report.Refresh.Refreshed),
		"matched", report.Reconcile.Matched,
		"users_updated", report.Resolve.Updated,
	)
	return report, nil
}
