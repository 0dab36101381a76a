// Package diff computes per-interface, per-counter deltas and rates
// between two counter snapshots.
package diff

import (
	"math/big"
	"sort"
	"time"

	"github.com/vshulcz/Intfstat/internal/domain"
)

// Diff compares cur against old, pair by pair over cur's contents.
//
// A pair missing from old (including an entirely empty old, i.e. a
// first-ever display) gets the new value verbatim as its delta and no
// rate. A pair where either side is absent is marked unavailable and
// never coerced to zero. Otherwise delta = new − old, computed in
// big.Int; a negative delta signals a counter reset and is reported
// as-is. When elapsed > 0 a per-second rate is added for rate-eligible
// counters, plus a utilization percentage for byte counters on ports
// with a known speed.
//
// Interfaces present in old but gone from cur are listed in Removed.
// Diff never mutates its inputs.
func Diff(old, cur domain.Snapshot, elapsed time.Duration) domain.DiffResult {
	res := domain.DiffResult{
		OldCapturedAt: old.CapturedAt,
		NewCapturedAt: cur.CapturedAt,
		Elapsed:       elapsed,
		Ports:         make(map[domain.InterfaceID]domain.PortDiff, len(cur.Ports)),
	}
	secs := elapsed.Seconds()

	for id, pc := range cur.Ports {
		pd := domain.PortDiff{
			Counters:  make(map[domain.CounterName]domain.CounterDiff, len(pc.Counters)),
			SpeedMbps: domain.CloneU64(pc.SpeedMbps),
			Internal:  pc.Internal,
		}
		oldPC, hadPort := old.Ports[id]

		for name, nv := range pc.Counters {
			cd := domain.CounterDiff{New: domain.CloneU64(nv)}

			var ov *uint64
			hadCounter := false
			if hadPort {
				ov, hadCounter = oldPC.Counters[name]
			}

			switch {
			case !hadCounter:
				// Since-inception: the new value is the delta.
				if nv != nil {
					cd.Delta = new(big.Int).SetUint64(*nv)
				}
			case ov == nil || nv == nil:
				cd.Old = domain.CloneU64(ov)
			default:
				cd.Old = domain.CloneU64(ov)
				d := new(big.Int).SetUint64(*nv)
				d.Sub(d, new(big.Int).SetUint64(*ov))
				cd.Delta = d
				if secs > 0 && name.RateEligible() {
					cd.RatePerSec = ratePerSec(d, secs)
					cd.UtilPercent = utilization(name, cd.RatePerSec, pc.SpeedMbps)
				}
			}
			pd.Counters[name] = cd
		}
		res.Ports[id] = pd
	}

	for id, oldPC := range old.Ports {
		if _, ok := cur.Ports[id]; !ok {
			res.Removed = append(res.Removed, domain.RemovedPort{ID: id, Internal: oldPC.Internal})
		}
	}
	sort.Slice(res.Removed, func(i, j int) bool { return res.Removed[i].ID < res.Removed[j].ID })

	return res
}

func ratePerSec(delta *big.Int, secs float64) *float64 {
	f, _ := new(big.Float).SetInt(delta).Float64()
	r := f / secs
	return &r
}

// utilization converts a byte rate into percent of line speed.
func utilization(name domain.CounterName, rate *float64, speedMbps *uint64) *float64 {
	if rate == nil || speedMbps == nil || *speedMbps == 0 {
		return nil
	}
	if name != domain.RxBytes && name != domain.TxBytes {
		return nil
	}
	u := (*rate * 8) / (float64(*speedMbps) * 1e6) * 100
	return &u
}
