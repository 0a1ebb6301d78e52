package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/domain/user"
)

// memStore keeps saved snapshots readable by later pipeline stages.
type memStore struct {
	snapshots map[fixture.Source]fixture.Snapshot
}

func newMemStore() *memStore {
	return &memStore{snapshots: map[fixture.Source]fixture.Snapshot{}}
}

func (s *memStore) Load(_ context.Context, source fixture.Source) (fixture.Snapshot, error) {
	snap, ok := s.snapshots[source]
	if !ok {
		return fixture.Snapshot{}, fixture.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *memStore) Save(_ context.Context, source fixture.Source, snap fixture.Snapshot) error {
	s.snapshots[source] = snap
	return nil
}

func TestRefreshAllIsolatesSourceFailures(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	snapshots := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{
		fixture.SourceFotMob:    &stubFetcher{records: []fixture.Record{{Round: 1, GameID: "100"}}},
		fixture.SourceWhoScored: &stubFetcher{err: errors.New("feed down")},
	}, nil)
	svc := NewRefreshService(snapshots, nil, nil, nil, 2, nil)

	report, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("refresh all: %v", err)
	}
	if len(report.Refreshed) != 1 || report.Refreshed[0] != fixture.SourceFotMob {
		t.Fatalf("unexpected refreshed sources: %v", report.Refreshed)
	}
	if _, ok := report.Failed[fixture.SourceWhoScored]; !ok {
		t.Fatalf("expected whoscored failure recorded, got %v", report.Failed)
	}
	if len(store.snapshots[fixture.SourceFotMob].Fixtures) != 1 {
		t.Fatal("fotmob snapshot not saved")
	}
}

func TestRefreshAllFailsWhenEverySourceFails(t *testing.T) {
	t.Parallel()

	snapshots := NewSnapshotService(newMemStore(), map[fixture.Source]ScheduleFetcher{
		fixture.SourceFotMob: &stubFetcher{err: errors.New("down")},
	}, nil)
	svc := NewRefreshService(snapshots, nil, nil, nil, 2, nil)

	_, err := svc.RefreshAll(context.Background())
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestRunPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
	store := newMemStore()

	snapshots := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{
		fixture.SourceFotMob: &stubFetcher{records: []fixture.Record{{
			Round: 1, GameID: "100",
			HomeTeam: "Arsenal", AwayTeam: "Chelsea",
			Date:      fixture.NewTimestamp(kickoff),
			HomeScore: intPtr(2), AwayScore: intPtr(1),
			Status: fixture.StatusFinished,
		}}},
		fixture.SourceWhoScored: &stubFetcher{records: []fixture.Record{{
			Round: 1, GameID: "ws9",
			HomeTeam: "Arsenal FC", AwayTeam: "Chelsea FC",
			Date:      fixture.NewTimestamp(kickoff),
			WhoScored: map[string]any{"match_id": "ws9"},
		}}},
	}, nil)
	reconciler := NewReconcileService(store, nil)
	enricher := NewEnrichService(store, map[fixture.Source]MatchEventsFetcher{
		fixture.SourceFotMob: &stubEventsFetcher{events: map[string][]map[string]any{
			"100": {{"type": "goal", "minute": 12}},
		}},
	}, 2, nil)

	users := &stubUserRepo{users: []user.User{{
		ID: "u1",
		Predictions: user.Predictions{"1": {Matches: []user.MatchPrediction{
			{GameID: "100", HomeScore: intPtr(2), AwayScore: intPtr(1)},
		}}},
	}}}
	resolver := NewPointsResolverService(store, users, nil)

	svc := NewRefreshService(snapshots, reconciler, enricher, resolver, 2, nil)

	report, err := svc.RunPipeline(context.Background())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	if len(report.Refresh.Refreshed) != 2 {
		t.Fatalf("expected both sources refreshed, got %v", report.Refresh.Refreshed)
	}
	if report.Reconcile.Matched != 1 {
		t.Fatalf("expected one reconciled fixture, got %+v", report.Reconcile)
	}
	if report.Enrich[fixture.SourceFotMob].Enriched != 1 {
		t.Fatalf("expected one enriched fixture, got %+v", report.Enrich)
	}
	if report.Resolve.Updated != 1 {
		t.Fatalf("expected one user resolved, got %+v", report.Resolve)
	}

	record := store.snapshots[fixture.SourceFotMob].Fixtures[0]
	if record.WhoScoredMatchID != "ws9" {
		t.Fatalf("cross source id not attached: %+v", record)
	}
	if !record.Enriched || len(record.Events) != 1 {
		t.Fatalf("events not attached: %+v", record)
	}

	saved := users.saved["u1"]
	if saved.TotalPoints != 3 || saved.LastRoundPoints != 3 {
		t.Fatalf("unexpected resolved points: %+v", saved)
	}
}
