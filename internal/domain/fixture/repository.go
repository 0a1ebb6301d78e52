package fixture

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound reports that a source has no stored snapshot yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Meta describes a stored snapshot.
type Meta struct {
	LastUpdated Timestamp `json:"last_updated"`
	League      string    `json:"league,omitempty"`
	Season      string    `json:"season,omitempty"`
}

// Snapshot is the full per-source fixture list plus its metadata. It is the
// unit of persistence: stores replace whole snapshots, never single rows.
type Snapshot struct {
	Meta     Meta     `json:"meta"`
	Fixtures []Record `json:"fixtures"`
}

// Store persists one snapshot per source. Load fails with
// ErrSnapshotNotFound for a source that was never saved.
type Store interface {
	Load(ctx context.Context, source Source) (Snapshot, error)
	Save(ctx context.Context, source Source, snapshot Snapshot) error
}

// CloneRecords copies a fixture list into a fresh backing array so callers
// can rewrite records without aliasing a stored or cached snapshot.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
