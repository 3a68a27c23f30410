package storage

import (
	"context"
	"errors"

	"swapScope/internal/model"
)

// ErrNoSnapshot is returned when no persisted snapshot exists for a chain.
var ErrNoSnapshot = errors.New("no snapshot stored")

// SnapshotStore persists pool snapshots so the pair graph can survive
// indexer outages across restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap model.PoolSnapshot) error
	LatestSnapshot(ctx context.Context, chainID uint64) (model.PoolSnapshot, error)
}
