package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prediksibola/predictor-league/internal/domain/leaderboard"
	qb "github.com/prediksibola/predictor-league/internal/platform/querybuilder"
)

type LeaderboardRepository struct {
	db *sqlx.DB
}

func NewLeaderboardRepository(db *sqlx.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

func (r *LeaderboardRepository) GetByRound(ctx context.Context, round int) (leaderboard.Snapshot, bool, error) {
	query, args, err := qb.Select("*").From("leaderboard_snapshots").
		Where(qb.Eq("round_number", round)).
		ToSQL()
	if err != nil {
		return leaderboard.Snapshot{}, false, fmt.Errorf("build get leaderboard query: %w", err)
	}

	var row leaderboardTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return leaderboard.Snapshot{}, false, nil
		}
		return leaderboard.Snapshot{}, false, fmt.Errorf("get leaderboard round=%d: %w", round, err)
	}

	snapshot, err := leaderboardFromTableModel(row)
	if err != nil {
		return leaderboard.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

func (r *LeaderboardRepository) GetLatest(ctx context.Context) (leaderboard.Snapshot, bool, error) {
	query, args, err := qb.Select("*").From("leaderboard_snapshots").
		OrderBy("round_number DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return leaderboard.Snapshot{}, false, fmt.Errorf("build get latest leaderboard query: %w", err)
	}

	var row leaderboardTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return leaderboard.Snapshot{}, false, nil
		}
		return leaderboard.Snapshot{}, false, fmt.Errorf("get latest leaderboard: %w", err)
	}

	snapshot, err := leaderboardFromTableModel(row)
	if err != nil {
		return leaderboard.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

func (r *LeaderboardRepository) Save(ctx context.Context, s leaderboard.Snapshot) error {
	entriesJSON, err := marshalJSONColumn(s.Entries)
	if err != nil {
		return fmt.Errorf("marshal leaderboard entries: %w", err)
	}

	now := time.Now().UTC()
	model := leaderboardInsertModel{
		RoundNumber: s.RoundNumber,
		Entries:     entriesJSON,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query, args, err := qb.InsertModel("leaderboard_snapshots", model, `ON CONFLICT (round_number)
DO UPDATE SET
    entries = EXCLUDED.entries,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert leaderboard query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert leaderboard round=%d: %w", s.RoundNumber, err)
	}
	return nil
}

func leaderboardFromTableModel(row leaderboardTableModel) (leaderboard.Snapshot, error) {
	snapshot := leaderboard.Snapshot{RoundNumber: row.RoundNumber}
	if err := unmarshalJSONColumn(row.Entries, &snapshot.Entries); err != nil {
		return leaderboard.Snapshot{}, fmt.Errorf("unmarshal leaderboard entries round=%d: %w", row.RoundNumber, err)
	}
	if snapshot.Entries == nil {
		snapshot.Entries = []leaderboard.Entry{}
	}
	return snapshot, nil
}
