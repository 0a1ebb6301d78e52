package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	"github.com/prediksibola/predictor-league/internal/platform/logging"
	"github.com/prediksibola/predictor-league/internal/platform/textmatch"
)

// kickoffTolerance bounds how far apart two sources may place the same
// match before team-name similarity is even considered.
const kickoffTolerance = 15 * time.Minute

// ReconcileService links FotMob fixtures to their WhoScored counterparts so
// one fixture carries both sources' identifiers and data.
type ReconcileService struct {
	store  fixture.Store
	logger *logging.Logger
}

func NewReconcileService(store fixture.Store, logger *logging.Logger) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{store: store, logger: logger}
}

// ReconcileResult summarises one reconciliation pass.
type ReconcileResult struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Reconcile walks the FotMob snapshot and attaches the best WhoScored match
// to every fixture, then persists the updated snapshot.
func (s *ReconcileService) Reconcile(ctx context.Context) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Reconcile")
	defer span.End()

	primary, err := s.store.Load(ctx, fixture.SourceFotMob)
	if err != nil {
		if errors.Is(err, fixture.ErrSnapshotNotFound) {
			return ReconcileResult{}, fmt.Errorf("%w: no fotmob snapshot to reconcile", ErrNotFound)
		}
		return ReconcileResult{}, fmt.Errorf("load fotmob snapshot: %w", err)
	}
	reference, err := s.store.Load(ctx, fixture.SourceWhoScored)
	if err != nil {
		if !errors.Is(err, fixture.ErrSnapshotNotFound) {
			return ReconcileResult{}, fmt.Errorf("load whoscored snapshot: %w", err)
		}
		// The reference feed may be disabled or not fetched yet; every
		// fixture then reconciles against an empty candidate table.
		s.logger.WarnContext(ctx, "whoscored snapshot missing, reconciling against empty reference")
		reference = fixture.Snapshot{}
	}

	result := ReconcileResult{Total: len(primary.Fixtures)}
	for i := range primary.Fixtures {
		primary.Fixtures[i] = MatchRecord(primary.Fixtures[i], reference.Fixtures)
		if primary.Fixtures[i].WhoScoredMatchID != "" {
			result.Matched++
		} else {
			result.Unmatched++
		}
	}

	if err := s.store.Save(ctx, fixture.SourceFotMob, primary); err != nil {
		return ReconcileResult{}, fmt.Errorf("save reconciled snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "fixtures reconciled",
		"total", result.Total,
		"matched", result.Matched,
		"unmatched", result.Unmatched,
	)
	return result, nil
}

// MatchRecord finds the reference record describing the same match and
// attaches its id and raw data. Precedence:
//  1. an already-linked id that still resolves exactly wins;
//  2. otherwise candidates within the kickoff tolerance compete on summed
//     home and away team-name similarity, and only a strictly higher score
//     displaces the running best;
//  3. no candidate clears both links so a stale id never survives.
func MatchRecord(record fixture.Record, reference []fixture.Record) fixture.Record {
	if record.WhoScoredMatchID != "" {
		for _, candidate := range reference {
			if candidate.GameID != "" && candidate.GameID == record.WhoScoredMatchID {
				record.WhoScoredMatchID = candidate.GameID
				record.WhoScored = candidateData(candidate)
				return record
			}
		}
	}

	bestScore := 0.0
	bestIndex := -1
	for i, candidate := range reference {
		if record.Date.IsZero() || candidate.Date.IsZero() {
			continue
		}
		gap := record.Date.Sub(candidate.Date.Time)
		if gap < 0 {
			gap = -gap
		}
		if gap > kickoffTolerance {
			continue
		}

		score := textmatch.NormalizedRatio(record.HomeTeam, candidate.HomeTeam) +
			textmatch.NormalizedRatio(record.AwayTeam, candidate.AwayTeam)
		if score > bestScore {
			bestScore = score
			bestIndex = i
		} else if score == bestScore && bestIndex >= 0 && candidate.GameID < reference[bestIndex].GameID {
			// Equal scores settle on the lexicographically smaller id so
			// repeated passes stay deterministic.
			bestIndex = i
		}
	}

	if bestIndex < 0 || bestScore <= 0 {
		record.WhoScoredMatchID = ""
		record.WhoScored = nil
		return record
	}

	matched := reference[bestIndex]
	record.WhoScoredMatchID = matched.GameID
	record.WhoScored = candidateData(matched)
	return record
}

// candidateData prefers the raw provider row carried on the record and
// synthesises a minimal one when the snapshot predates raw-row storage.
func candidateData(candidate fixture.Record) map[string]any {
	if len(candidate.WhoScored) > 0 {
		return candidate.WhoScored
	}
	data := map[string]any{
		"game_id":   candidate.GameID,
		"home_team": candidate.HomeTeam,
		"away_team": candidate.AwayTeam,
		"date":      candidate.Date.Label(),
	}
	if candidate.HomeScore != nil {
		data["home_score"] = *candidate.HomeScore
	}
	if candidate.AwayScore != nil {
		data["away_score"] = *candidate.AwayScore
	}
	return data
}
