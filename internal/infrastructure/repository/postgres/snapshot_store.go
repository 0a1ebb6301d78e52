package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prediksibola/predictor-league/internal/domain/fixture"
	qb "github.com/prediksibola/predictor-league/internal/platform/querybuilder"
)

type snapshotTableModel struct {
	Source    string    `db:"source"`
	Document  string    `db:"document"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SnapshotStore persists one JSONB document per source, mirroring the
// whole-snapshot replace semantics of the file store.
type SnapshotStore struct {
	db *sqlx.DB
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Load(ctx context.Context, source fixture.Source) (fixture.Snapshot, error) {
	query, args, err := qb.Select("*").From("fixture_snapshots").
		Where(qb.Eq("source", string(source))).
		ToSQL()
	if err != nil {
		return fixture.Snapshot{}, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row snapshotTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Snapshot{}, fmt.Errorf("snapshot source=%s: %w", source, fixture.ErrSnapshotNotFound)
		}
		return fixture.Snapshot{}, fmt.Errorf("get snapshot source=%s: %w", source, err)
	}

	var snapshot fixture.Snapshot
	if err := unmarshalJSONColumn(row.Document, &snapshot); err != nil {
		return fixture.Snapshot{}, fmt.Errorf("unmarshal snapshot source=%s: %w", source, err)
	}
	if snapshot.Fixtures == nil {
		snapshot.Fixtures = []fixture.Record{}
	}
	return snapshot, nil
}

func (s *SnapshotStore) Save(ctx context.Context, source fixture.Source, snapshot fixture.Snapshot) error {
	document, err := marshalJSONColumn(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot source=%s: %w", source, err)
	}

	model := snapshotTableModel{
		Source:    string(source),
		Document:  document,
		UpdatedAt: time.Now().UTC(),
	}

	query, args, err := qb.InsertModel("fixture_snapshots", model, `ON CONFLICT (source)
DO UPDATE SET
    document = EXCLUDED.document,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert snapshot query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert snapshot source=%s: %w", source, err)
	}
	return nil
}
