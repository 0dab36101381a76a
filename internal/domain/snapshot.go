package domain

import (
	"maps"
	"time"
)

// InterfaceID is the stable external name of a port, e.g. "Ethernet4".
// It must be unique across namespaces; a collision is a device
// configuration error and the later namespace wins on merge.
type InterfaceID string

// DefaultNamespace is the namespace name used by single-ASIC sources.
const DefaultNamespace = "default"

// NamespaceSelector chooses which namespaces a snapshot covers.
type NamespaceSelector struct {
	// Namespace names a single namespace; ignored when All is set.
	Namespace string
	// All merges every namespace the source knows about.
	All bool
}

// DisplayScope restricts which port classes appear in a result.
type DisplayScope string

const (
	ScopeAll      DisplayScope = "all"
	ScopeExternal DisplayScope = "external"
	ScopeInternal DisplayScope = "internal"
)

// PortCounters holds one interface's counter values at capture time.
// A nil pointer means the source had no data for that counter, which is
// distinct from a present zero everywhere in the pipeline.
type PortCounters struct {
	Counters  map[CounterName]*uint64 `json:"counters"`
	SpeedMbps *uint64                 `json:"speed_mbps,omitempty"`
	Internal  bool                    `json:"internal,omitempty"`
}

// Clone returns a deep copy of the port counters.
func (p PortCounters) Clone() PortCounters {
	out := PortCounters{
		Counters:  make(map[CounterName]*uint64, len(p.Counters)),
		SpeedMbps: CloneU64(p.SpeedMbps),
		Internal:  p.Internal,
	}
	for name, v := range p.Counters {
		out.Counters[name] = CloneU64(v)
	}
	return out
}

// PortTable is one namespace's worth of per-interface counters as
// returned by a counter source.
type PortTable map[InterfaceID]PortCounters

// Snapshot is a point-in-time capture of every tracked counter for
// every interface, merged across namespaces. Immutable once built.
type Snapshot struct {
	CapturedAt    time.Time                    `json:"captured_at"`
	AllNamespaces bool                         `json:"all_namespaces"`
	Ports         map[InterfaceID]PortCounters `json:"ports"`
}

// Empty reports whether the snapshot carries no data, e.g. the old side
// of a first-ever diff.
func (s Snapshot) Empty() bool {
	return s.CapturedAt.IsZero() && len(s.Ports) == 0
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		CapturedAt:    s.CapturedAt,
		AllNamespaces: s.AllNamespaces,
		Ports:         make(map[InterfaceID]PortCounters, len(s.Ports)),
	}
	for id, pc := range s.Ports {
		out.Ports[id] = pc.Clone()
	}
	return out
}

// CachedSnapshot is a snapshot restored from the cache plus the time it
// was persisted.
type CachedSnapshot struct {
	SavedAt  time.Time
	Snapshot Snapshot
}

// U64 returns a pointer to v, for building counter maps literally.
func U64(v uint64) *uint64 {
	return &v
}

// CloneU64 copies an optional counter value, preserving absence.
func CloneU64(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	vv := *v
	return &vv
}

// InterfaceSet is a parsed interface filter. A nil set means no
// restriction was supplied, which is different from a set that matched
// zero interfaces.
type InterfaceSet map[InterfaceID]struct{}

// Has reports whether id is in the set.
func (s InterfaceSet) Has(id InterfaceID) bool {
	_, ok := s[id]
	return ok
}

// Clone returns a shallow copy of the set, preserving nil.
func (s InterfaceSet) Clone() InterfaceSet {
	if s == nil {
		return nil
	}
	out := make(InterfaceSet, len(s))
	maps.Copy(out, s)
	return out
}
