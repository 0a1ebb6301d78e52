package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
)

func TestDedupKey_UsesQStashSafeFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.February, 25, 4, 25, 42, 0, time.UTC)
	got := dedupKey("sync:live/now", at, 5*time.Minute)

	if strings.Contains(got, ":") {
		t.Fatalf("dedup key must not contain colon, got=%q", got)
	}

	want := "sync-live-now-20260225T042500Z"
	if got != want {
		t.Fatalf("unexpected dedup key: got=%q want=%q", got, want)
	}
}

func TestSanitizeDedupSegment_EmptyFallback(t *testing.T) {
	t.Parallel()

	if got := sanitizeDedupSegment(" \t "); got != "unknown" {
		t.Fatalf("unexpected sanitize fallback: got=%q want=%q", got, "unknown")
	}
}

func TestAnalyzeFixtures(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 7, 15, 0, 0, 0, time.UTC)
	soon := now.Add(2 * time.Hour)
	later := now.Add(26 * time.Hour)

	records := []fixture.Record{
		{Status: "LIVE", Date: fixture.NewTimestamp(now.Add(-30 * time.Minute))},
		{Status: "SCHEDULED", Date: fixture.NewTimestamp(later)},
		{Status: "SCHEDULED", Date: fixture.NewTimestamp(soon)},
		{Status: "CANCELLED", Date: fixture.NewTimestamp(now.Add(time.Hour))},
		{Status: "FINISHED", Date: fixture.NewTimestamp(now.Add(-2 * time.Hour))},
	}

	liveCount, nearest := analyzeFixtures(records, now)
	if liveCount != 1 {
		t.Fatalf("expected one live fixture, got %d", liveCount)
	}
	if nearest == nil || !nearest.Equal(soon) {
		t.Fatalf("expected nearest kickoff %v, got %v", soon, nearest)
	}
}

type recordedJob struct {
	path    string
	delay   time.Duration
	dedupID string
}

type stubJobQueue struct {
	jobs []recordedJob
}

func (q *stubJobQueue) Enqueue(_ context.Context, path string, _ any, delay time.Duration, dedupID string) error {
	q.jobs = append(q.jobs, recordedJob{path: path, delay: delay, dedupID: dedupID})
	return nil
}

func newOrchestratorForTest(records []fixture.Record, queue JobQueue) *JobOrchestratorService {
	store := newMemStore()
	store.snapshots[fixture.SourceFotMob] = fixture.Snapshot{Fixtures: records}
	snapshots := NewSnapshotService(store, map[fixture.Source]ScheduleFetcher{
		fixture.SourceFotMob: &stubFetcher{records: records},
	}, nil)
	refresher := NewRefreshService(snapshots, NewReconcileService(store, nil), NewEnrichService(store, nil, 1, nil), nil, 1, nil)
	return NewJobOrchestratorService(refresher, snapshots, nil, queue, nil, JobOrchestratorConfig{
		ScheduleInterval: 15 * time.Minute,
		LiveInterval:     5 * time.Minute,
		PreKickoffLead:   15 * time.Minute,
	}, nil)
}

func TestRunScheduleSyncQueuesLiveBeforeKickoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
	kickoff := now.Add(2 * time.Hour)
	queue := &stubJobQueue{}
	svc := newOrchestratorForTest([]fixture.Record{
		{Round: 1, GameID: "100", Status: "SCHEDULED", Date: fixture.NewTimestamp(kickoff)},
	}, queue)
	svc.now = func() time.Time { return now }

	result, err := svc.RunScheduleSync(context.Background(), JobSyncInput{})
	if err != nil {
		t.Fatalf("schedule sync: %v", err)
	}
	if result.SourceCount != 1 {
		t.Fatalf("expected one refreshed source, got %d", result.SourceCount)
	}
	if result.QueuedCount != 2 {
		t.Fatalf("expected live and schedule jobs queued, got %v", result.QueuedOperations)
	}

	live := queue.jobs[0]
	if live.path != "/v1/internal/jobs/sync-live" {
		t.Fatalf("unexpected first job path %q", live.path)
	}
	wantDelay := kickoff.Add(-15 * time.Minute).Sub(now)
	if live.delay != wantDelay {
		t.Fatalf("live job delay %v, want %v", live.delay, wantDelay)
	}
}

func TestRunScheduleSyncQuietWeekSkipsLiveJob(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)
	queue := &stubJobQueue{}
	svc := newOrchestratorForTest([]fixture.Record{
		{Round: 1, GameID: "100", Status: "FINISHED", Date: fixture.NewTimestamp(now.Add(-48 * time.Hour))},
	}, queue)
	svc.now = func() time.Time { return now }

	result, err := svc.RunScheduleSync(context.Background(), JobSyncInput{})
	if err != nil {
		t.Fatalf("schedule sync: %v", err)
	}
	if result.QueuedCount != 1 {
		t.Fatalf("expected only the schedule job, got %v", result.QueuedOperations)
	}
	if queue.jobs[0].delay < 6*time.Hour {
		t.Fatalf("quiet week should back off, delay was %v", queue.jobs[0].delay)
	}
}

func TestRunScheduleSyncDirectQueuesNothing(t *testing.T) {
	t.Parallel()

	queue := &stubJobQueue{}
	svc := newOrchestratorForTest([]fixture.Record{
		{Round: 1, GameID: "100", Status: "SCHEDULED"},
	}, queue)

	result, err := svc.RunScheduleSyncDirect(context.Background(), JobSyncInput{})
	if err != nil {
		t.Fatalf("direct sync: %v", err)
	}
	if result.QueuedCount != 0 || len(queue.jobs) != 0 {
		t.Fatalf("direct sync must not queue jobs, got %v", queue.jobs)
	}
}

func TestLatestFinishedRound(t *testing.T) {
	t.Parallel()

	records := []fixture.Record{
		{Round: 1, Status: "FINISHED"},
		{Round: 2, Status: "FINISHED"},
		{Round: 3, Status: "SCHEDULED"},
	}
	if got := latestFinishedRound(records); got != 2 {
		t.Fatalf("latest finished round = %d, want 2", got)
	}
	if got := latestFinishedRound(nil); got != 0 {
		t.Fatalf("empty fixtures should give 0, got %d", got)
	}
}
