// Package static implements an in-memory counter source seeded by the
// caller, used as a fixture in tests and offline tooling.
package static

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/ports"
)

// Source keeps per-namespace port tables in memory with coarse-grained
// RW locking. Reads return deep copies.
type Source struct {
	mu     sync.RWMutex
	tables map[string]domain.PortTable
	// failWith, when set, makes every fetch fail; lets tests exercise
	// the source-unavailable path.
	failWith error
}

var _ ports.CounterSource = (*Source)(nil)

// New returns an empty source.
func New() *Source {
	return &Source{tables: make(map[string]domain.PortTable)}
}

// SetPort seeds one interface's counters in the given namespace,
// replacing any previous value.
func (s *Source) SetPort(ns string, id domain.InterfaceID, pc domain.PortCounters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables[ns] == nil {
		s.tables[ns] = make(domain.PortTable)
	}
	s.tables[ns][id] = pc.Clone()
}

// RemovePort deletes one interface from the given namespace.
func (s *Source) RemovePort(ns string, id domain.InterfaceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[ns]; ok {
		delete(t, id)
	}
}

// FailWith makes every subsequent call return err; nil restores normal
// operation.
func (s *Source) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Namespaces lists the seeded namespaces in sorted order.
func (s *Source) Namespaces(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, s.failWith)
	}
	out := make([]string, 0, len(s.tables))
	for ns := range s.tables {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

// FetchNamespace returns a deep copy of one namespace's port table.
func (s *Source) FetchNamespace(_ context.Context, ns string) (domain.PortTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, s.failWith)
	}
	table, ok := s.tables[ns]
	if !ok {
		return nil, fmt.Errorf("%w: unknown namespace %q", domain.ErrSourceUnavailable, ns)
	}
	out := make(domain.PortTable, len(table))
	for id, pc := range table {
		out[id] = pc.Clone()
	}
	return out, nil
}
