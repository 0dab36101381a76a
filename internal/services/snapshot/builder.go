// Package snapshot assembles point-in-time counter snapshots from a
// counter source, merged across namespaces.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/ports"
)

// Builder turns counter-source fetches into immutable snapshots.
type Builder struct {
	src ports.CounterSource
	log *zap.Logger
	now func() time.Time
}

// New creates a Builder over the given source.
func New(src ports.CounterSource, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{src: src, log: logger, now: time.Now}
}

// Build captures one snapshot for the selected namespaces. Ports
// outside the display scope are omitted here, at build time, so a
// scoped display never carries them at all; callers saving a baseline
// must pass domain.ScopeAll so a later diff against any scope still
// finds matching keys. CapturedAt is stamped once, after the merge.
func (b *Builder) Build(ctx context.Context, sel domain.NamespaceSelector, scope domain.DisplayScope) (domain.Snapshot, error) {
	nss, err := b.namespaces(ctx, sel)
	if err != nil {
		return domain.Snapshot{}, err
	}

	merged := make(map[domain.InterfaceID]domain.PortCounters)
	for _, ns := range nss {
		table, err := b.src.FetchNamespace(ctx, ns)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("fetch namespace %q: %w", ns, err)
		}
		for id, pc := range table {
			if !scopeAllows(scope, pc.Internal) {
				continue
			}
			if _, dup := merged[id]; dup {
				// Cross-namespace collision is a device configuration
				// error; last namespace wins.
				b.log.Warn("duplicate interface across namespaces",
					zap.String("interface", string(id)),
					zap.String("namespace", ns),
				)
			}
			merged[id] = pc.Clone()
		}
	}

	return domain.Snapshot{
		CapturedAt:    b.now(),
		AllNamespaces: sel.All,
		Ports:         merged,
	}, nil
}

func (b *Builder) namespaces(ctx context.Context, sel domain.NamespaceSelector) ([]string, error) {
	if !sel.All {
		ns := sel.Namespace
		if ns == "" {
			ns = domain.DefaultNamespace
		}
		return []string{ns}, nil
	}
	nss, err := b.src.Namespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	return nss, nil
}

func scopeAllows(scope domain.DisplayScope, internal bool) bool {
	switch scope {
	case domain.ScopeExternal:
		return !internal
	case domain.ScopeInternal:
		return internal
	default:
		return true
	}
}
