package ports

import (
	"context"

	"github.com/vshulcz/Intfstat/internal/domain"
)

// SnapshotCache persists tagged baseline snapshots for later diffs.
// Save is atomic and last-write-wins; Load returns domain.ErrNotFound
// when no record exists for the tag; Delete of an absent tag is a
// no-op. All storage failures wrap domain.ErrStorage.
type SnapshotCache interface {
	Save(ctx context.Context, tag string, s domain.Snapshot) error
	Load(ctx context.Context, tag string) (domain.CachedSnapshot, error)
	Delete(ctx context.Context, tag string) error
	DeleteAll(ctx context.Context) error
}

// SnapshotArchive records saved baselines in long-term storage. The
// archive is best-effort: the file cache stays the source of truth.
type SnapshotArchive interface {
	Archive(ctx context.Context, tag string, s domain.Snapshot) error
}
