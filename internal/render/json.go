package render

import (
	"encoding/json"
	"io"
	"math/big"
	"time"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/services/report"
)

// jsonDoc is the machine-readable report shape. Absent counters keep
// an explicit null delta so consumers can tell absence from zero.
type jsonDoc struct {
	CapturedAt time.Time            `json:"captured_at"`
	BaselineAt *time.Time           `json:"baseline_at"`
	ElapsedSec *float64             `json:"elapsed_seconds,omitempty"`
	Interfaces map[string]jsonPort  `json:"interfaces"`
	Removed    []domain.InterfaceID `json:"removed,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
}

type jsonPort map[string]jsonCounter

type jsonCounter struct {
	Old         *uint64  `json:"old"`
	New         *uint64  `json:"new"`
	Delta       *big.Int `json:"delta"`
	RatePerSec  *float64 `json:"rate_per_sec,omitempty"`
	UtilPercent *float64 `json:"util_percent,omitempty"`
}

// JSON writes rep to w as a single indented JSON document.
func JSON(w io.Writer, rep report.Report) error {
	doc := jsonDoc{
		CapturedAt: rep.CapturedAt,
		Interfaces: make(map[string]jsonPort, len(rep.Rows)),
		Removed:    rep.Removed,
		Warnings:   rep.Warnings,
	}
	if !rep.Raw() {
		at := rep.BaselineAt
		doc.BaselineAt = &at
	}
	if rep.HasRates() {
		sec := rep.Elapsed.Seconds()
		doc.ElapsedSec = &sec
	}

	for _, row := range rep.Rows {
		port := make(jsonPort, len(rep.Columns))
		for _, name := range rep.Columns {
			d := row.Counters[name]
			port[string(name)] = jsonCounter{
				Old:         d.Old,
				New:         d.New,
				Delta:       d.Delta,
				RatePerSec:  d.RatePerSec,
				UtilPercent: d.UtilPercent,
			}
		}
		doc.Interfaces[string(row.Interface)] = port
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
