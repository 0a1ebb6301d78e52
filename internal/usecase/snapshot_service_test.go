package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
)

type stubFetcher struct {
	records []fixture.Record
	meta    fixture.Meta
	err     error
	calls   int
}

func (s *stubFetcher) FetchSchedule(_ context.Context) ([]fixture.Record, fixture.Meta, error) {
	s.calls++
	return s.records, s.meta, s.err
}

func TestRebuildSnapshotPreservesEnrichment(t *testing.T) {
	t.Parallel()

	previous := []fixture.Record{
		{Round: 1, GameID: "m1", Enriched: true, Events: []map[string]any{{"type": "goal"}}},
		{Round: 1, TempID: "1_A_B_2025-08-16", Enriched: true, Events: []map[string]any{{"type": "card"}}},
		{Round: 2, GameID: "gone", Enriched: true},
	}
	fresh := []fixture.Record{
		{Round: 1, GameID: "m1", HomeTeam: "A", AwayTeam: "B", Status: fixture.StatusFinished},
		{Round: 1, TempID: "1_A_B_2025-08-16", HomeTeam: "A", AwayTeam: "B"},
		{Round: 2, GameID: "m9", HomeTeam: "C", AwayTeam: "D"},
	}

	out := RebuildSnapshot(fresh, previous)
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if !out[0].Enriched || len(out[0].Events) != 1 {
		t.Fatalf("game-id keyed enrichment lost: %+v", out[0])
	}
	if out[0].Status != fixture.StatusFinished {
		t.Fatalf("fresh schedule fields must win: %+v", out[0])
	}
	if !out[1].Enriched || len(out[1].Events) != 1 {
		t.Fatalf("temp-id keyed enrichment lost: %+v", out[1])
	}
	if out[2].Enriched || len(out[2].Events) != 0 {
		t.Fatalf("new fixture must start unenriched: %+v", out[2])
	}
}

func TestRebuildSnapshotAssignsTempID(t *testing.T) {
	t.Parallel()

	date := fixture.ParseTimestamp("2025-08-16")
	fresh := []fixture.Record{
		{Round: 1, HomeTeam: "Aston Villa", AwayTeam: "Leeds", Date: date, GameID: "0"},
	}

	out := RebuildSnapshot(fresh, nil)
	if out[0].TempID != "1_AstonVilla_Leeds_2025-08-16" {
		t.Fatalf("unexpected temp id %q", out[0].TempID)
	}
}

func TestRefreshSourceSavesMergedSnapshot(t *testing.T) {
	t.Parallel()

	store := &stubStore{snapshots: map[fixture.Source]fixture.Snapshot{
		fixture.SourceFotMob: {Fixtures: []fixture.Record{
			{Round: 1, GameID: "m1", Enriched: true, Events: []map[string]any{{"k": "v"}}},
		}},
	}}
	fetcher := &stubFetcher{
		records: []fixture.Record{{Round: 1, GameID: "m1", HomeTeam: "A", AwayTeam: "B"}},
		meta:    fixture.Meta{League: "premier-league", Season: "2025-2026"},
	}
	svc := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{fixture.SourceFotMob: fetcher}, nil)

	snap, err := svc.RefreshSource(context.Background(), fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("RefreshSource: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher calls = %d", fetcher.calls)
	}
	if !snap.Fixtures[0].Enriched {
		t.Fatalf("enrichment lost during refresh: %+v", snap.Fixtures[0])
	}
	saved, ok := store.saved[fixture.SourceFotMob]
	if !ok || len(saved.Fixtures) != 1 {
		t.Fatalf("snapshot not saved: %+v", store.saved)
	}
	if saved.Meta.Season != "2025-2026" {
		t.Fatalf("meta not propagated: %+v", saved.Meta)
	}
}

func TestRefreshSourceFirstRunStartsFromEmpty(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	fetcher := &stubFetcher{
		records: []fixture.Record{{Round: 1, GameID: "m1", HomeTeam: "A", AwayTeam: "B"}},
	}
	svc := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{fixture.SourceFotMob: fetcher}, nil)

	snap, err := svc.RefreshSource(context.Background(), fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("RefreshSource: %v", err)
	}
	if len(snap.Fixtures) != 1 || snap.Fixtures[0].Enriched {
		t.Fatalf("unexpected first snapshot: %+v", snap.Fixtures)
	}
	if _, ok := store.saved[fixture.SourceFotMob]; !ok {
		t.Fatalf("first snapshot not saved")
	}
}

func TestGetSnapshotBeforeFirstRefresh(t *testing.T) {
	t.Parallel()

	svc := NewSnapshotService(&stubStore{}, nil, nil)
	_, err := svc.GetSnapshot(context.Background(), fixture.SourceFotMob)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshSourceFetchFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	fetcher := &stubFetcher{err: errors.New("provider down")}
	svc := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{fixture.SourceWhoScored: fetcher}, nil)

	if _, err := svc.RefreshSource(context.Background(), fixture.SourceWhoScored); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.saved) != 0 {
		t.Fatalf("failed refresh must not overwrite snapshot")
	}
}

func TestRefreshSourceUnknownSource(t *testing.T) {
	t.Parallel()

	svc := NewSnapshotService(&stubStore{}, nil, nil)
	_, err := svc.RefreshSource(context.Background(), fixture.SourceFBref)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueryFixturesDefaultsToUpcomingRound(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	store := &stubStore{snapshots: map[fixture.Source]fixture.Snapshot{
		fixture.SourceFotMob: {Fixtures: []fixture.Record{
			{Round: 1, Date: fixture.NewTimestamp(now.Add(-48 * time.Hour))},
			{Round: 2, Date: fixture.NewTimestamp(now.Add(24 * time.Hour))},
			{Round: 2, Date: fixture.NewTimestamp(now.Add(26 * time.Hour))},
			{Round: 3, Date: fixture.NewTimestamp(now.Add(8 * 24 * time.Hour))},
		}},
	}}
	svc := NewSnapshotService(store, nil, nil)

	snap, err := svc.QueryFixtures(context.Background(), fixture.SourceFotMob, FixtureQuery{})
	if err != nil {
		t.Fatalf("QueryFixtures: %v", err)
	}
	if len(snap.Fixtures) != 2 {
		t.Fatalf("expected next round's 2 fixtures, got %d", len(snap.Fixtures))
	}
	for _, record := range snap.Fixtures {
		if record.Round != 2 {
			t.Fatalf("expected round 2, got %d", record.Round)
		}
	}
}

func TestQueryFixturesSeasonOverFallsBackToLastRound(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	store := &stubStore{snapshots: map[fixture.Source]fixture.Snapshot{
		fixture.SourceFotMob: {Fixtures: []fixture.Record{
			{Round: 37, Date: fixture.NewTimestamp(now.Add(-14 * 24 * time.Hour))},
			{Round: 38, Date: fixture.NewTimestamp(now.Add(-7 * 24 * time.Hour))},
		}},
	}}
	svc := NewSnapshotService(store, nil, nil)

	snap, err := svc.QueryFixtures(context.Background(), fixture.SourceFotMob, FixtureQuery{})
	if err != nil {
		t.Fatalf("QueryFixtures: %v", err)
	}
	if len(snap.Fixtures) != 1 || snap.Fixtures[0].Round != 38 {
		t.Fatalf("expected last round fallback, got %+v", snap.Fixtures)
	}
}

func TestQueryFixturesByWeekAndTeam(t *testing.T) {
	t.Parallel()

	store := &stubStore{snapshots: map[fixture.Source]fixture.Snapshot{
		fixture.SourceFBref: {Fixtures: []fixture.Record{
			{Round: 1, HomeTeam: "Arsenal", AwayTeam: "Wolves"},
			{Round: 2, HomeTeam: "Chelsea", AwayTeam: "Arsenal"},
		}},
	}}
	svc := NewSnapshotService(store, nil, nil)

	week := 1
	snap, err := svc.QueryFixtures(context.Background(), fixture.SourceFBref, FixtureQuery{Week: &week})
	if err != nil {
		t.Fatalf("QueryFixtures week: %v", err)
	}
	if len(snap.Fixtures) != 1 || snap.Fixtures[0].HomeTeam != "Arsenal" {
		t.Fatalf("week filter wrong: %+v", snap.Fixtures)
	}

	snap, err = svc.QueryFixtures(context.Background(), fixture.SourceFBref, FixtureQuery{Team: "arsenal"})
	if err != nil {
		t.Fatalf("QueryFixtures team: %v", err)
	}
	if len(snap.Fixtures) != 2 {
		t.Fatalf("team filter wrong: %+v", snap.Fixtures)
	}
}
