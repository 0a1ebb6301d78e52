package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/domain/jobscheduler"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type JobOrchestratorConfig struct {
	ScheduleInterval time.Duration
	LiveInterval     time.Duration
	PreKickoffLead   time.Duration
}

type JobSyncInput struct {
	Source string
	Force  bool
}

type JobSyncResult struct {
	Mode             string   `json:"mode"`
	SourceCount      int      `json:"source_count"`
	LiveFixtures     int      `json:"live_fixtures"`
	QueuedCount      int      `json:"queued_count"`
	QueuedOperations []string `json:"queued_operations"`
}

// JobOrchestratorService runs the scheduled aggregation jobs and decides
// when the next run should happen: frequent while matches are live, timed
// around the next kickoff otherwise, and sparse between rounds.
type JobOrchestratorService struct {
	refresher    *RefreshService
	snapshots    *SnapshotService
	leaderboards *LeaderboardService
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	cfg          JobOrchestratorConfig
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewJobOrchestratorService(
	refresher *RefreshService,
	snapshots *SnapshotService,
	leaderboards *LeaderboardService,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg JobOrchestratorConfig,
	logger *logging.Logger,
) *JobOrchestratorService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ScheduleInterval <= 0 {
		cfg.ScheduleInterval = 15 * time.Minute
	}
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = 5 * time.Minute
	}
	if cfg.PreKickoffLead <= 0 {
		cfg.PreKickoffLead = 15 * time.Minute
	}

	return &JobOrchestratorService{
		refresher:    refresher,
		snapshots:    snapshots,
		leaderboards: leaderboards,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// RunScheduleSync refreshes the source snapshots and queues the next runs.
// It does not touch events or points; the live job handles those.
func (s *JobOrchestratorService) RunScheduleSync(ctx context.Context, input JobSyncInput) (JobSyncResult, error) {
	return s.run(ctx, "schedule", input, false, true)
}

// RunLiveSync runs the full pipeline so scores, events and user points move
// while matches are playing, then queues the next runs.
func (s *JobOrchestratorService) RunLiveSync(ctx context.Context, input JobSyncInput) (JobSyncResult, error) {
	return s.run(ctx, "live", input, true, true)
}

// RunScheduleSyncDirect refreshes once without queueing any follow-up. Used
// by the manual trigger endpoint.
func (s *JobOrchestratorService) RunScheduleSyncDirect(ctx context.Context, input JobSyncInput) (JobSyncResult, error) {
	return s.run(ctx, "schedule-direct", input, false, false)
}

// Bootstrap seeds the job chain with one immediate schedule sync.
func (s *JobOrchestratorService) Bootstrap(ctx context.Context, _ JobSyncInput) (JobSyncResult, error) {
	now := s.now().UTC()
	result := JobSyncResult{
		Mode:             "bootstrap",
		SourceCount:      len(s.snapshots.Sources()),
		QueuedOperations: make([]string, 0, 1),
	}

	if err := s.enqueue(ctx, "sync-schedule", 0, now); err != nil {
		return JobSyncResult{}, err
	}
	result.QueuedCount++
	result.QueuedOperations = append(result.QueuedOperations, "sync-schedule")

	return result, nil
}

func (s *JobOrchestratorService) run(ctx context.Context, mode string, input JobSyncInput, fullPipeline bool, enqueueNext bool) (JobSyncResult, error) {
	now := s.now().UTC()
	result := JobSyncResult{
		Mode:             mode,
		QueuedOperations: make([]string, 0, 2),
	}

	if fullPipeline {
		report, err := s.refresher.RunPipeline(ctx)
		if err != nil {
			return JobSyncResult{}, fmt.Errorf("run aggregation pipeline: %w", err)
		}
		result.SourceCount = len(report.Refresh.Refreshed)
		s.rebuildLeaderboard(ctx)
	} else if source := strings.TrimSpace(input.Source); source != "" {
		parsed, err := fixture.ParseSource(source)
		if err != nil {
			return JobSyncResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if _, err := s.snapshots.RefreshSource(ctx, parsed); err != nil {
			return JobSyncResult{}, fmt.Errorf("refresh source=%s: %w", parsed, err)
		}
		result.SourceCount = 1
	} else {
		report, err := s.refresher.RefreshAll(ctx)
		if err != nil {
			return JobSyncResult{}, fmt.Errorf("refresh sources: %w", err)
		}
		result.SourceCount = len(report.Refreshed)
	}

	snapshot, err := s.snapshots.GetSnapshot(ctx, fixture.SourceFotMob)
	if err != nil {
		return JobSyncResult{}, fmt.Errorf("load primary snapshot: %w", err)
	}
	liveCount, nearestUpcoming := analyzeFixtures(snapshot.Fixtures, now)
	result.LiveFixtures = liveCount

	if !enqueueNext {
		return result, nil
	}

	if liveCount > 0 {
		if err := s.enqueue(ctx, "sync-live", s.cfg.LiveInterval, now); err != nil {
			return JobSyncResult{}, err
		}
		result.QueuedCount++
		result.QueuedOperations = append(result.QueuedOperations, "sync-live")
	} else if nearestUpcoming != nil {
		liveAt := nearestUpcoming.Add(-s.cfg.PreKickoffLead)
		delay := liveAt.Sub(now)
		if input.Force {
			delay = 0
		} else if delay <= 0 {
			delay = s.cfg.LiveInterval
		}
		if err := s.enqueue(ctx, "sync-live", delay, now); err != nil {
			return JobSyncResult{}, err
		}
		result.QueuedCount++
		result.QueuedOperations = append(result.QueuedOperations, "sync-live")
	}

	scheduleDelay := s.nextScheduleDelay(now, liveCount > 0, nearestUpcoming)
	if err := s.enqueue(ctx, "sync-schedule", scheduleDelay, now); err != nil {
		return JobSyncResult{}, err
	}
	result.QueuedCount++
	result.QueuedOperations = append(result.QueuedOperations, "sync-schedule")

	return result, nil
}

// rebuildLeaderboard refreshes the board for the latest round with finished
// fixtures. Failures are logged, not fatal, so a leaderboard hiccup never
// stops the sync chain.
func (s *JobOrchestratorService) rebuildLeaderboard(ctx context.Context) {
	if s.leaderboards == nil {
		return
	}
	snapshot, err := s.snapshots.GetSnapshot(ctx, fixture.SourceFotMob)
	if err != nil {
		s.logger.WarnContext(ctx, "load snapshot for leaderboard failed", "error", err)
		return
	}
	round := latestFinishedRound(snapshot.Fixtures)
	if round == 0 {
		return
	}
	if _, err := s.leaderboards.Rebuild(ctx, round); err != nil {
		s.logger.WarnContext(ctx, "leaderboard rebuild failed", "round", round, "error", err)
	}
}

func latestFinishedRound(records []fixture.Record) int {
	round := 0
	for _, record := range records {
		if fixture.IsFinishedStatus(record.Status) && record.Round > round {
			round = record.Round
		}
	}
	return round
}

func (s *JobOrchestratorService) enqueue(ctx context.Context, jobName string, delay time.Duration, now time.Time) error {
	bucket := s.cfg.ScheduleInterval
	if jobName == "sync-live" {
		bucket = s.cfg.LiveInterval
	}
	dedupID := dedupKey(jobName, now.Add(delay), bucket)
	jobPath := "/v1/internal/jobs/" + jobName
	payload := map[string]any{
		"dispatch_id": dedupID,
	}
	if err := s.queue.Enqueue(ctx, jobPath, payload, delay, dedupID); err != nil {
		s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
			DispatchID:   dedupID,
			JobName:      jobName,
			JobPath:      jobPath,
			Status:       jobscheduler.StatusFailed,
			Payload:      payload,
			ErrorMessage: err.Error(),
			OccurredAt:   now.UTC(),
		})
		return fmt.Errorf("enqueue %s: %w", jobName, err)
	}
	s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
		DispatchID: dedupID,
		JobName:    jobName,
		JobPath:    jobPath,
		Status:     jobscheduler.StatusSent,
		Payload:    payload,
		OccurredAt: now.UTC(),
	})
	return nil
}

func dedupKey(prefix string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return sanitizeDedupSegment(prefix) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func (s *JobOrchestratorService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}

// analyzeFixtures counts live matches and finds the soonest kickoff still
// ahead of now.
func analyzeFixtures(records []fixture.Record, now time.Time) (int, *time.Time) {
	var nearestUpcoming *time.Time
	liveCount := 0
	for _, record := range records {
		status := strings.TrimSpace(record.Status)
		if fixture.IsLiveStatus(status) {
			liveCount++
		}

		if record.Date.IsZero() {
			continue
		}
		if record.Date.Before(now) {
			continue
		}
		if fixture.IsFinishedStatus(status) || fixture.IsCancelledLikeStatus(status) {
			continue
		}
		if nearestUpcoming == nil || record.Date.Before(*nearestUpcoming) {
			next := record.Date.Time
			nearestUpcoming = &next
		}
	}

	return liveCount, nearestUpcoming
}

func (s *JobOrchestratorService) nextScheduleDelay(now time.Time, hasLive bool, nearestUpcoming *time.Time) time.Duration {
	minDelay := time.Minute
	if hasLive {
		return maxDuration(s.cfg.LiveInterval, minDelay)
	}

	if nearestUpcoming != nil {
		liveAt := nearestUpcoming.Add(-s.cfg.PreKickoffLead)
		delay := liveAt.Sub(now)
		if delay <= 0 {
			return maxDuration(s.cfg.LiveInterval, minDelay)
		}
		return maxDuration(delay, minDelay)
	}

	// No upcoming fixture nearby, schedule far less frequently to avoid unnecessary polling.
	return maxDuration(s.cfg.ScheduleInterval, 6*time.Hour)
}

func maxDuration(left, right time.Duration) time.Duration {
	if left > right {
		return left
	}
	return right
}
