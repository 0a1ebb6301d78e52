package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
)

func TestSnapshotStoreLoadMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore()
	_, err := store.Load(context.Background(), fixture.SourceFotMob)
	if !errors.Is(err, fixture.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSnapshotStoreLoadDoesNotAliasStoredFixtures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewSnapshotStore()
	saved := fixture.Snapshot{Fixtures: []fixture.Record{
		{Round: 1, GameID: "m1", HomeTeam: "Arsenal", AwayTeam: "Wolves"},
	}}
	if err := store.Save(ctx, fixture.SourceFotMob, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, err := store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	first.Fixtures[0].WhoScoredMatchID = "ws-1"
	first.Fixtures[0].Enriched = true

	second, err := store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if second.Fixtures[0].WhoScoredMatchID != "" || second.Fixtures[0].Enriched {
		t.Fatalf("stored snapshot mutated through a loaded copy: %+v", second.Fixtures[0])
	}

	// The caller's slice must not back the stored snapshot either.
	saved.Fixtures[0].GameID = "changed"
	third, err := store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("Load third: %v", err)
	}
	if third.Fixtures[0].GameID != "m1" {
		t.Fatalf("stored snapshot mutated through the saved slice: %+v", third.Fixtures[0])
	}
}
