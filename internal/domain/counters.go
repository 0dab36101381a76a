package domain

// CounterName identifies one tracked per-interface counter. The set is
// fixed: adapters map whatever the source exposes onto these names and
// report anything they cannot provide as absent.
type CounterName string

const (
	RxPackets  CounterName = "rx_packets"
	RxBytes    CounterName = "rx_bytes"
	RxErrors   CounterName = "rx_errors"
	RxDrops    CounterName = "rx_drops"
	RxOverruns CounterName = "rx_overruns"
	RxCRC      CounterName = "rx_crc_errors"

	TxPackets  CounterName = "tx_packets"
	TxBytes    CounterName = "tx_bytes"
	TxErrors   CounterName = "tx_errors"
	TxDrops    CounterName = "tx_drops"
	TxOverruns CounterName = "tx_overruns"

	FECCorrected   CounterName = "fec_corrected"
	FECUncorrected CounterName = "fec_uncorrected"
	FECSymbolErr   CounterName = "fec_symbol_errors"

	TrimPackets CounterName = "trim_packets"
	TrimDrops   CounterName = "trim_drops"
)

// Category groups counters for display filtering.
type Category string

const (
	CategoryBasic Category = "basic"
	CategoryError Category = "error"
	CategoryFEC   Category = "fec"
	CategoryTrim  Category = "trim"
)

// names holds every counter in the stable display order.
var names = []CounterName{
	RxPackets, RxBytes, RxErrors, RxDrops, RxOverruns, RxCRC,
	TxPackets, TxBytes, TxErrors, TxDrops, TxOverruns,
	FECCorrected, FECUncorrected, FECSymbolErr,
	TrimPackets, TrimDrops,
}

var categories = map[CounterName]Category{
	RxPackets:      CategoryBasic,
	RxBytes:        CategoryBasic,
	TxPackets:      CategoryBasic,
	TxBytes:        CategoryBasic,
	RxErrors:       CategoryError,
	RxDrops:        CategoryError,
	RxOverruns:     CategoryError,
	RxCRC:          CategoryError,
	TxErrors:       CategoryError,
	TxDrops:        CategoryError,
	TxOverruns:     CategoryError,
	FECCorrected:   CategoryFEC,
	FECUncorrected: CategoryFEC,
	FECSymbolErr:   CategoryFEC,
	TrimPackets:    CategoryTrim,
	TrimDrops:      CategoryTrim,
}

// rateEligible marks counters for which a per-second rate is meaningful.
var rateEligible = map[CounterName]bool{
	RxPackets: true,
	RxBytes:   true,
	TxPackets: true,
	TxBytes:   true,
}

// summary is the counter subset shown when detail output is off.
var summary = []CounterName{
	RxPackets, RxBytes, RxErrors, RxDrops,
	TxPackets, TxBytes, TxErrors, TxDrops,
}

// Names returns every known counter in stable display order.
func Names() []CounterName {
	return append([]CounterName(nil), names...)
}

// NamesIn returns the counters belonging to the given category, in
// stable display order.
func NamesIn(cat Category) []CounterName {
	out := make([]CounterName, 0, len(names))
	for _, n := range names {
		if categories[n] == cat {
			out = append(out, n)
		}
	}
	return out
}

// SummaryNames returns the counter subset shown without the detail flag.
func SummaryNames() []CounterName {
	return append([]CounterName(nil), summary...)
}

// Category reports the static category the counter belongs to.
func (c CounterName) Category() Category {
	return categories[c]
}

// RateEligible reports whether a per-second rate applies to the counter.
func (c CounterName) RateEligible() bool {
	return rateEligible[c]
}

// Known reports whether the name is part of the tracked counter set.
func (c CounterName) Known() bool {
	_, ok := categories[c]
	return ok
}
