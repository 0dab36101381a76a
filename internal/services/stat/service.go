// Package stat orchestrates the show / save / delete / rate flows on
// top of the snapshot builder, cache, and diff engine.
package stat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/ports"
	"github.com/vshulcz/Intfstat/internal/services/diff"
	"github.com/vshulcz/Intfstat/internal/services/oplog"
	"github.com/vshulcz/Intfstat/internal/services/report"
	"github.com/vshulcz/Intfstat/internal/services/snapshot"
	"github.com/vshulcz/Intfstat/pkg/observer"
)

// Service runs one command invocation at a time; every call builds its
// snapshots from scratch and shares no mutable state with other calls.
type Service struct {
	builder  *snapshot.Builder
	cache    ports.SnapshotCache
	archive  ports.SnapshotArchive
	ops      observer.Publisher[oplog.Event]
	log      *zap.Logger
	identity string
	wait     func(ctx context.Context, d time.Duration) error
}

// Option tweaks Service construction.
type Option func(*Service)

// WithArchive attaches a best-effort long-term archive for saved
// baselines.
func WithArchive(a ports.SnapshotArchive) Option {
	return func(s *Service) { s.archive = a }
}

// WithOps attaches an operation-log publisher for cache mutations.
func WithOps(p observer.Publisher[oplog.Event]) Option {
	return func(s *Service) { s.ops = p }
}

// New wires a Service. identity names the invoking user and only feeds
// the operation log; key-space separation by identity happens in the
// cache directory the caller chose.
func New(builder *snapshot.Builder, cache ports.SnapshotCache, identity string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		builder:  builder,
		cache:    cache,
		log:      logger,
		identity: identity,
		wait:     waitFor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Show captures a fresh snapshot and diffs it against the baseline
// saved under tag. Without a baseline it falls back to raw counters;
// with the raw category requested it skips the cache entirely. No
// cache writes happen on this path.
func (s *Service) Show(ctx context.Context, sel domain.NamespaceSelector, spec report.FilterSpec, tag string) (report.Report, error) {
	cur, err := s.builder.Build(ctx, sel, spec.Scope)
	if err != nil {
		return report.Report{}, err
	}

	var base domain.Snapshot
	if spec.Category != report.CategoryRaw {
		rec, err := s.cache.Load(ctx, tag)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.log.Debug("no baseline, showing raw counters", zap.String("tag", tag))
		case err != nil:
			return report.Report{}, err
		default:
			base = rec.Snapshot
		}
	}

	return report.Select(diff.Diff(base, cur, 0), spec), nil
}

// Save captures a fresh snapshot and persists it as the baseline under
// tag. The capture always uses the unfiltered scope, whatever scope the
// user displays with, so a later scoped diff still finds its keys.
func (s *Service) Save(ctx context.Context, sel domain.NamespaceSelector, tag string) error {
	snap, err := s.builder.Build(ctx, sel, domain.ScopeAll)
	if err != nil {
		return err
	}
	if err := s.cache.Save(ctx, tag, snap); err != nil {
		return err
	}
	s.publish(ctx, oplog.NewEvent(oplog.OpSave, tag, s.identity))

	if s.archive != nil {
		if err := s.archive.Archive(ctx, tag, snap); err != nil {
			s.log.Warn("snapshot archive failed", zap.String("tag", tag), zap.Error(err))
		}
	}
	return nil
}

// Delete removes the baseline saved under tag; absent tags are a no-op.
func (s *Service) Delete(ctx context.Context, tag string) error {
	if err := s.cache.Delete(ctx, tag); err != nil {
		return err
	}
	s.publish(ctx, oplog.NewEvent(oplog.OpDelete, tag, s.identity))
	return nil
}

// DeleteAll removes every baseline owned by the invoking identity.
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.cache.DeleteAll(ctx); err != nil {
		return err
	}
	s.publish(ctx, oplog.NewEvent(oplog.OpDeleteAll, "", s.identity))
	return nil
}

// Rate measures per-second rates over the given window: capture, wait,
// capture again, diff with the measured elapsed time. The wait aborts
// cleanly on context cancellation and the cache is never touched.
func (s *Service) Rate(ctx context.Context, sel domain.NamespaceSelector, spec report.FilterSpec, window time.Duration) (report.Report, error) {
	if window <= 0 {
		return report.Report{}, fmt.Errorf("%w: rate window must be positive, got %v", domain.ErrInvalidFilter, window)
	}

	first, err := s.builder.Build(ctx, sel, spec.Scope)
	if err != nil {
		return report.Report{}, err
	}
	if err := s.wait(ctx, window); err != nil {
		return report.Report{}, err
	}
	second, err := s.builder.Build(ctx, sel, spec.Scope)
	if err != nil {
		return report.Report{}, err
	}

	elapsed := second.CapturedAt.Sub(first.CapturedAt)
	if elapsed <= 0 {
		elapsed = window
	}
	return report.Select(diff.Diff(first, second, elapsed), spec), nil
}

// Watch repeatedly measures rates over interval and hands each report
// to emit until the context ends. A nil error from Watch means the
// context was cancelled, the normal way to stop watching.
func (s *Service) Watch(ctx context.Context, sel domain.NamespaceSelector, spec report.FilterSpec, interval time.Duration, emit func(report.Report) error) error {
	if interval <= 0 {
		return fmt.Errorf("%w: watch interval must be positive, got %v", domain.ErrInvalidFilter, interval)
	}

	prev, err := s.builder.Build(ctx, sel, spec.Scope)
	if err != nil {
		return err
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			cur, err := s.builder.Build(ctx, sel, spec.Scope)
			if err != nil {
				return err
			}
			elapsed := cur.CapturedAt.Sub(prev.CapturedAt)
			if elapsed <= 0 {
				elapsed = interval
			}
			if err := emit(report.Select(diff.Diff(prev, cur, elapsed), spec)); err != nil {
				return err
			}
			prev = cur
		}
	}
}

func (s *Service) publish(ctx context.Context, evt oplog.Event) {
	if s.ops != nil {
		s.ops.Publish(ctx, evt)
	}
}

func waitFor(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
