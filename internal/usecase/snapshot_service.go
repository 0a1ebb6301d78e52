package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

// ScheduleFetcher pulls the full season schedule from one data source.
type ScheduleFetcher interface {
	FetchSchedule(ctx context.Context) ([]fixture.Record, fixture.Meta, error)
}

// SnapshotService rebuilds per-source fixture snapshots from fresh provider
// data. Rebuilds are destructive for schedule fields but carry enrichment
// state (events, enriched flag) across, keyed by each record's identity.
type SnapshotService struct {
	store    fixture.Store
	fetchers map[fixture.Source]ScheduleFetcher
	logger   *logging.Logger
	now      func() time.Time
}

func NewSnapshotService(store fixture.Store, fetchers map[fixture.Source]ScheduleFetcher, logger *logging.Logger) *SnapshotService {
	if logger == nil {
		logger = logging.Default()
	}
	if fetchers == nil {
		fetchers = map[fixture.Source]ScheduleFetcher{}
	}
	return &SnapshotService{
		store:    store,
		fetchers: fetchers,
		logger:   logger,
		now:      time.Now,
	}
}

// Sources returns the sources this service can refresh, in stable order.
func (s *SnapshotService) Sources() []fixture.Source {
	out := make([]fixture.Source, 0, len(s.fetchers))
	for source := range s.fetchers {
		out = append(out, source)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RefreshSource fetches the schedule for one source and replaces its stored
// snapshot. Enriched state from the previous snapshot survives the rebuild.
func (s *SnapshotService) RefreshSource(ctx context.Context, source fixture.Source) (fixture.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.RefreshSource")
	defer span.End()

	fetcher, ok := s.fetchers[source]
	if !ok {
		return fixture.Snapshot{}, fmt.Errorf("%w: no fetcher for source=%s", ErrInvalidInput, source)
	}

	records, meta, err := fetcher.FetchSchedule(ctx)
	if err != nil {
		return fixture.Snapshot{}, fmt.Errorf("refresh source=%s: %w", source, err)
	}

	previous, err := s.store.Load(ctx, source)
	if err != nil {
		if !errors.Is(err, fixture.ErrSnapshotNotFound) {
			return fixture.Snapshot{}, fmt.Errorf("load previous snapshot source=%s: %w", source, err)
		}
		// First refresh for this source: nothing to carry over.
		previous = fixture.Snapshot{}
	}

	rebuilt := RebuildSnapshot(records, previous.Fixtures)
	if meta.LastUpdated.IsZero() {
		meta.LastUpdated = fixture.NewTimestamp(s.now().UTC())
	}
	snapshot := fixture.Snapshot{Meta: meta, Fixtures: rebuilt}

	if err := s.store.Save(ctx, source, snapshot); err != nil {
		return fixture.Snapshot{}, fmt.Errorf("save snapshot source=%s: %w", source, err)
	}

	s.logger.InfoContext(ctx, "fixture snapshot refreshed",
		"source", string(source),
		"fixture_count", len(snapshot.Fixtures),
	)
	return snapshot, nil
}

// RebuildSnapshot merges fresh schedule rows with the previous snapshot.
// Schedule fields always take the fresh value; enrichment state transfers
// from the previous record with the same identity. Fresh rows with no
// previous counterpart start unenriched with an empty event list.
func RebuildSnapshot(fresh []fixture.Record, previous []fixture.Record) []fixture.Record {
	carried := make(map[string]fixture.Record, len(previous))
	for _, old := range previous {
		if key := old.Key(); key != "" {
			carried[key] = old
		}
	}

	out := make([]fixture.Record, 0, len(fresh))
	for _, record := range fresh {
		if !record.HasUsableGameID() && record.TempID == "" {
			record.TempID = fixture.TempID(record.Round, record.HomeTeam, record.AwayTeam, record.Date)
		}

		if old, ok := carried[record.Key()]; ok {
			record.Enriched = old.Enriched
			record.Events = old.Events
			if record.WhoScoredMatchID == "" {
				record.WhoScoredMatchID = old.WhoScoredMatchID
				record.WhoScored = old.WhoScored
			}
		} else {
			record.Enriched = false
			record.Events = []map[string]any{}
		}
		if record.Events == nil {
			record.Events = []map[string]any{}
		}
		out = append(out, record)
	}
	return out
}

// GetSnapshot returns the stored snapshot for a source without touching the
// provider. A source that was never refreshed fails with ErrNotFound.
func (s *SnapshotService) GetSnapshot(ctx context.Context, source fixture.Source) (fixture.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.GetSnapshot")
	defer span.End()

	snapshot, err := s.store.Load(ctx, source)
	if err != nil {
		if errors.Is(err, fixture.ErrSnapshotNotFound) {
			return fixture.Snapshot{}, fmt.Errorf("%w: no snapshot for source=%s", ErrNotFound, source)
		}
		return fixture.Snapshot{}, fmt.Errorf("load snapshot source=%s: %w", source, err)
	}
	return snapshot, nil
}

// FixtureQuery filters snapshot reads. A nil Week means "the next round with
// an unplayed fixture", mirroring what the prediction UI shows by default.
type FixtureQuery struct {
	Week   *int
	Round  *int
	Team   string
	Status string
}

// QueryFixtures loads a snapshot and applies the query. With no filters set
// it falls back to the upcoming round, or the last round once the season is
// over.
func (s *SnapshotService) QueryFixtures(ctx context.Context, source fixture.Source, query FixtureQuery) (fixture.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotService.QueryFixtures")
	defer span.End()

	snapshot, err := s.store.Load(ctx, source)
	if err != nil {
		if errors.Is(err, fixture.ErrSnapshotNotFound) {
			return fixture.Snapshot{}, fmt.Errorf("%w: no snapshot for source=%s", ErrNotFound, source)
		}
		return fixture.Snapshot{}, fmt.Errorf("load snapshot source=%s: %w", source, err)
	}

	switch {
	case query.Round != nil:
		snapshot.Fixtures = filterRecords(snapshot.Fixtures, func(r fixture.Record) bool {
			return r.Round == *query.Round
		})
	case query.Week != nil:
		snapshot.Fixtures = filterRecords(snapshot.Fixtures, func(r fixture.Record) bool {
			return r.Round == *query.Week
		})
	case query.Team != "":
		team := strings.ToLower(strings.TrimSpace(query.Team))
		snapshot.Fixtures = filterRecords(snapshot.Fixtures, func(r fixture.Record) bool {
			return strings.ToLower(r.HomeTeam) == team || strings.ToLower(r.AwayTeam) == team
		})
	case query.Status != "":
		status := fixture.NormalizeStatus(query.Status)
		snapshot.Fixtures = filterRecords(snapshot.Fixtures, func(r fixture.Record) bool {
			return fixture.NormalizeStatus(r.Status) == status
		})
	default:
		snapshot.Fixtures = upcomingRound(snapshot.Fixtures, s.now().UTC())
	}
	return snapshot, nil
}

func filterRecords(records []fixture.Record, keep func(fixture.Record) bool) []fixture.Record {
	out := make([]fixture.Record, 0, len(records))
	for _, record := range records {
		if keep(record) {
			out = append(out, record)
		}
	}
	return out
}

// upcomingRound returns the fixtures of the round holding the next future
// kickoff. When every fixture is in the past it returns the highest round.
func upcomingRound(records []fixture.Record, now time.Time) []fixture.Record {
	var nextKickoff time.Time
	nextRound := 0
	lastRound := 0
	for _, record := range records {
		if record.Round > lastRound {
			lastRound = record.Round
		}
		if record.Date.IsZero() || !record.Date.After(now) {
			continue
		}
		if nextKickoff.IsZero() || record.Date.Before(nextKickoff) {
			nextKickoff = record.Date.Time
			nextRound = record.Round
		}
	}

	round := nextRound
	if round == 0 {
		round = lastRound
	}
	return filterRecords(records, func(r fixture.Record) bool { return r.Round == round })
}
