package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/infrastructure/repository/memory"
	basecache "github.com/prediksibola/predictor-league/internal/platform/cache"
)

func TestSnapshotStoreLoadDoesNotAliasCachedFixtures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := memory.NewSnapshotStore()
	store := NewSnapshotStore(next, basecache.NewStore(time.Minute))

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
	first.Fixtures[0].Events = []map[string]any{{"type": "goal"}}

	second, err := store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if second.Fixtures[0].WhoScoredMatchID != "" || len(second.Fixtures[0].Events) != 0 {
		t.Fatalf("cached snapshot mutated through a loaded copy: %+v", second.Fixtures[0])
	}
}

func TestSnapshotStoreSaveInvalidatesCachedLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := memory.NewSnapshotStore()
	store := NewSnapshotStore(next, basecache.NewStore(time.Minute))

	if err := store.Save(ctx, fixture.SourceFotMob, fixture.Snapshot{
		Fixtures: []fixture.Record{{Round: 1, GameID: "m1"}},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Load(ctx, fixture.SourceFotMob); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := store.Save(ctx, fixture.SourceFotMob, fixture.Snapshot{
		Fixtures: []fixture.Record{{Round: 1, GameID: "m1"}, {Round: 2, GameID: "m2"}},
	}); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	got, err := store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if len(got.Fixtures) != 2 {
		t.Fatalf("stale cached snapshot served after save: %d fixtures", len(got.Fixtures))
	}
}
