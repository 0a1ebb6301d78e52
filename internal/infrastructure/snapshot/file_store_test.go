package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
)

func TestFileStoreLoadMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	_, err = store.Load(context.Background(), fixture.SourceFotMob)
	if !errors.Is(err, fixture.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	home := 2
	away := 1
	in := fixture.Snapshot{
		Meta: fixture.Meta{
			LastUpdated: fixture.ParseTimestamp("2025-08-16T17:00:00Z"),
			League:      "premier-league",
			Season:      "2025-2026",
		},
		Fixtures: []fixture.Record{
			{
				Round:     1,
				Date:      fixture.ParseTimestamp("2025-08-16T14:00:00Z"),
				HomeTeam:  "Arsenal",
				AwayTeam:  "Wolves",
				HomeScore: &home,
				AwayScore: &away,
				Status:    fixture.StatusFinished,
				GameID:    "4506001",
				Enriched:  true,
				Events:    []map[string]any{{"type": "goal", "minute": float64(12)}},
			},
		},
	}

	if err := store.Save(context.Background(), fixture.SourceFotMob, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load(context.Background(), fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.Fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(out.Fixtures))
	}
	got := out.Fixtures[0]
	if got.GameID != "4506001" || !got.Enriched || len(got.Events) != 1 {
		t.Fatalf("unexpected fixture after round trip: %+v", got)
	}
	if got.HomeScore == nil || *got.HomeScore != 2 {
		t.Fatalf("home score not preserved: %+v", got.HomeScore)
	}
	if out.Meta.Season != "2025-2026" {
		t.Fatalf("meta not preserved: %+v", out.Meta)
	}
}

func TestFileStoreSavesPerSource(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	ctx := context.Background()
	fot := fixture.Snapshot{Fixtures: []fixture.Record{{HomeTeam: "Arsenal", AwayTeam: "Wolves"}}}
	who := fixture.Snapshot{Fixtures: []fixture.Record{{HomeTeam: "Chelsea", AwayTeam: "Fulham"}}}

	if err := store.Save(ctx, fixture.SourceFotMob, fot); err != nil {
		t.Fatalf("Save fotmob: %v", err)
	}
	if err := store.Save(ctx, fixture.SourceWhoScored, who); err != nil {
		t.Fatalf("Save whoscored: %v", err)
	}

	gotFot, err := store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("Load fotmob: %v", err)
	}
	if gotFot.Fixtures[0].HomeTeam != "Arsenal" {
		t.Fatalf("fotmob snapshot clobbered: %+v", gotFot.Fixtures[0])
	}
}
