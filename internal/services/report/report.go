// Package report applies interface, scope, and category filters to a
// diff result and shapes it for rendering.
package report

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/vshulcz/Intfstat/internal/domain"
)

// CategoryFilter selects which counter columns are visible.
type CategoryFilter string

const (
	CategoryAll    CategoryFilter = "all"
	CategoryErrors CategoryFilter = "errors"
	CategoryFEC    CategoryFilter = "fec"
	CategoryTrim   CategoryFilter = "trim"
	// CategoryRaw shows undiffed new values; the caller arranges the
	// raw diff upstream, column selection here matches CategoryAll.
	CategoryRaw CategoryFilter = "raw"
)

// FilterSpec configures one selection pass. It is applied read-only.
type FilterSpec struct {
	// Interfaces restricts the result to the listed ports; nil means
	// no restriction.
	Interfaces domain.InterfaceSet
	Scope      domain.DisplayScope
	Category   CategoryFilter
	// RateOnly keeps only rate-eligible counters visible.
	RateOnly bool
	// Detail shows every counter of the chosen category instead of the
	// summary subset.
	Detail bool
	// NonZeroOnly drops rows whose visible deltas are all zero or
	// unavailable.
	NonZeroOnly bool
}

// Row is one interface's visible counters.
type Row struct {
	Interface domain.InterfaceID
	Counters  map[domain.CounterName]domain.CounterDiff
}

// Report is the final reportable result handed to a renderer.
type Report struct {
	Rows []Row
	// Columns lists the visible counters in stable display order.
	Columns []domain.CounterName
	// Removed lists interfaces present in the baseline but gone now.
	Removed []domain.InterfaceID
	// Warnings carries non-fatal per-run notices, e.g. unknown names
	// in the interface filter.
	Warnings []string

	// BaselineAt is zero when no baseline was used (raw display).
	BaselineAt time.Time
	CapturedAt time.Time
	Elapsed    time.Duration
}

// Raw reports whether the rows show undiffed counter values.
func (r Report) Raw() bool {
	return r.BaselineAt.IsZero()
}

// HasRates reports whether per-second figures are present.
func (r Report) HasRates() bool {
	return r.Elapsed > 0
}

// Select filters d down to the reportable result. Filters apply in a
// fixed order: interface set, display scope, category columns,
// non-zero-only, summary collapse. Unknown names in the interface set
// produce one warning each and are otherwise ignored. The input is
// never mutated; rows hold copies.
func Select(d domain.DiffResult, spec FilterSpec) Report {
	rep := Report{
		Columns:    visibleColumns(spec),
		BaselineAt: d.OldCapturedAt,
		CapturedAt: d.NewCapturedAt,
		Elapsed:    d.Elapsed,
	}

	// A removal only counts inside the requested view: a port the scope
	// or interface filter would have hidden anyway is not "gone".
	for _, rm := range d.Removed {
		if spec.Interfaces != nil && !spec.Interfaces.Has(rm.ID) {
			continue
		}
		if !scopeAllows(spec.Scope, rm.Internal) {
			continue
		}
		rep.Removed = append(rep.Removed, rm.ID)
	}

	for _, id := range sortedKeys(spec.Interfaces) {
		if _, ok := d.Ports[id]; !ok {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("unknown interface %q in filter", id))
		}
	}

	for id, pd := range d.Ports {
		if spec.Interfaces != nil && !spec.Interfaces.Has(id) {
			continue
		}
		if !scopeAllows(spec.Scope, pd.Internal) {
			continue
		}

		row := Row{
			Interface: id,
			Counters:  make(map[domain.CounterName]domain.CounterDiff, len(rep.Columns)),
		}
		for _, name := range rep.Columns {
			if cd, ok := pd.Counters[name]; ok {
				row.Counters[name] = cloneDiff(cd)
			}
		}
		if spec.NonZeroOnly && allZeroOrAbsent(row) {
			continue
		}
		rep.Rows = append(rep.Rows, row)
	}

	sort.Slice(rep.Rows, func(i, j int) bool {
		return naturalLess(string(rep.Rows[i].Interface), string(rep.Rows[j].Interface))
	})
	return rep
}

// visibleColumns resolves the category, rate-only, and detail filters
// into the ordered visible counter list.
func visibleColumns(spec FilterSpec) []domain.CounterName {
	var cols []domain.CounterName
	switch spec.Category {
	case CategoryErrors:
		cols = domain.NamesIn(domain.CategoryError)
	case CategoryFEC:
		cols = domain.NamesIn(domain.CategoryFEC)
	case CategoryTrim:
		cols = domain.NamesIn(domain.CategoryTrim)
	default:
		if spec.Detail {
			cols = domain.Names()
		} else {
			cols = domain.SummaryNames()
		}
	}
	if spec.RateOnly {
		kept := cols[:0]
		for _, n := range cols {
			if n.RateEligible() {
				kept = append(kept, n)
			}
		}
		cols = kept
	}
	return cols
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

func allZeroOrAbsent(row Row) bool {
	for _, cd := range row.Counters {
		if cd.Delta != nil && cd.Delta.Sign() != 0 {
			return false
		}
	}
	return true
}

func cloneDiff(cd domain.CounterDiff) domain.CounterDiff {
	out := domain.CounterDiff{
		Old: domain.CloneU64(cd.Old),
		New: domain.CloneU64(cd.New),
	}
	if cd.Delta != nil {
		out.Delta = new(big.Int).Set(cd.Delta)
	}
	if cd.RatePerSec != nil {
		v := *cd.RatePerSec
		out.RatePerSec = &v
	}
	if cd.UtilPercent != nil {
		v := *cd.UtilPercent
		out.UtilPercent = &v
	}
	return out
}

func sortedKeys(set domain.InterfaceSet) []domain.InterfaceID {
	out := make([]domain.InterfaceID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return naturalLess(string(out[i]), string(out[j])) })
	return out
}

// naturalLess orders embedded numbers numerically, so Ethernet2 sorts
// before Ethernet10.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		ad, an := leadingChunk(a)
		bd, bn := leadingChunk(b)
		if an && bn {
			// Compare digit runs numerically; longer run of digits
			// (ignoring leading zeros) is larger.
			at, bt := trimZeros(ad), trimZeros(bd)
			if len(at) != len(bt) {
				return len(at) < len(bt)
			}
			if at != bt {
				return at < bt
			}
		} else if ad != bd {
			return ad < bd
		}
		a, b = a[len(ad):], b[len(bd):]
	}
	return len(a) < len(b)
}

// leadingChunk returns the leading all-digit or all-non-digit run.
func leadingChunk(s string) (chunk string, numeric bool) {
	isDigit := func(c byte) bool { return c >= '0' && c <= '9' }
	numeric = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == numeric {
		i++
	}
	return s[:i], numeric
}

func trimZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}
