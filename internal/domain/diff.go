package domain

import (
	"math/big"
	"time"
)

// CounterDiff is the comparison of one counter between two snapshots.
// A nil Delta marks the pair unavailable: either side was absent, so no
// arithmetic was possible and the value must never be shown as zero.
// Deltas are carried as big.Int so a wrap of a full-width 64-bit source
// counter cannot masquerade as a small positive number.
type CounterDiff struct {
	Old         *uint64  `json:"old"`
	New         *uint64  `json:"new"`
	Delta       *big.Int `json:"delta"`
	RatePerSec  *float64 `json:"rate_per_sec,omitempty"`
	UtilPercent *float64 `json:"util_percent,omitempty"`
}

// Available reports whether a delta could be computed for the pair.
func (d CounterDiff) Available() bool {
	return d.Delta != nil
}

// PortDiff groups one interface's counter diffs.
type PortDiff struct {
	Counters  map[CounterName]CounterDiff
	SpeedMbps *uint64
	Internal  bool
}

// DiffResult is the per-interface, per-counter comparison of two
// snapshots. OldCapturedAt is zero when no baseline existed and the
// deltas are the new values verbatim.
type DiffResult struct {
	OldCapturedAt time.Time
	NewCapturedAt time.Time
	Elapsed       time.Duration
	Ports         map[InterfaceID]PortDiff
	// Removed lists interfaces present in the baseline but gone from
	// the new snapshot, surfaced per-row rather than failing the run.
	Removed []RemovedPort
}

// RemovedPort is an interface that existed in the baseline but is gone
// from the device. Internal is the baseline's classification, kept so
// a scoped display can drop removals it would not have shown anyway.
type RemovedPort struct {
	ID       InterfaceID
	Internal bool
}

// Raw reports whether the result was produced without a baseline.
func (r DiffResult) Raw() bool {
	return r.OldCapturedAt.IsZero()
}
