package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	fixturemock "github.com/prediksibola/predictor-league/internal/mocks/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestSnapshotService_RefreshSource_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := fixturemock.NewStore(t)

	fetcher := &stubFetcher{
		records: []fixture.Record{
			{Round: 1, GameID: "m1", HomeTeam: "Arsenal", AwayTeam: "Chelsea"},
		},
		meta: fixture.Meta{League: "Premier League", Season: "2025/2026"},
	}
	service := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{
		fixture.SourceFotMob: fetcher,
	}, logging.NewNop())

	previous := fixture.Snapshot{
		Fixtures: []fixture.Record{
			{Round: 1, GameID: "m1", Enriched: true, Events: []map[string]any{{"type": "goal"}}},
		},
	}

	store.
		On("Load", mock.Anything, fixture.SourceFotMob).
		Return(previous, nil).
		Once()
	store.
		On("Save", mock.Anything, fixture.SourceFotMob, mock.MatchedBy(func(s fixture.Snapshot) bool {
			return len(s.Fixtures) == 1 && s.Fixtures[0].Enriched
		})).
		Return(nil).
		Once()

	got, err := service.RefreshSource(ctx, fixture.SourceFotMob)
	if err != nil {
		t.Fatalf("refresh source: %v", err)
	}
	if got.Meta.League != "Premier League" {
		t.Fatalf("unexpected league: %s", got.Meta.League)
	}
	if !got.Fixtures[0].Enriched {
		t.Fatalf("enrichment state must survive the rebuild: %+v", got.Fixtures[0])
	}
}

func TestSnapshotService_RefreshSource_SaveErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := fixturemock.NewStore(t)

	fetcher := &stubFetcher{
		records: []fixture.Record{{Round: 1, GameID: "m1", HomeTeam: "A", AwayTeam: "B"}},
	}
	service := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{
		fixture.SourceFotMob: fetcher,
	}, logging.NewNop())

	saveErr := errors.New("connection reset")
	store.
		On("Load", mock.Anything, fixture.SourceFotMob).
		Return(fixture.Snapshot{}, nil).
		Once()
	store.
		On("Save", mock.Anything, fixture.SourceFotMob, mock.Anything).
		Return(saveErr).
		Once()

	_, err := service.RefreshSource(ctx, fixture.SourceFotMob)
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
}
