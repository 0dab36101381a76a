// Package render turns reports into terminal output. The table
// renderer targets humans, the JSON renderer targets scripts.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/services/report"
)

const notAvailable = "N/A"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table writes rep to w as a bordered table followed by any notices.
// Unavailable counters print N/A; with rate data present, rate and
// utilization columns appear next to the byte counters.
func Table(w io.Writer, rep report.Report) error {
	headers := []string{"IFACE"}
	for _, name := range rep.Columns {
		headers = append(headers, columnHeader(name))
		if rep.HasRates() && name.RateEligible() {
			headers = append(headers, rateHeader(name))
			if hasUtil(name) {
				headers = append(headers, utilHeader(name))
			}
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)

	for _, row := range rep.Rows {
		cells := []string{string(row.Interface)}
		for _, name := range rep.Columns {
			d := row.Counters[name]
			cells = append(cells, deltaCell(d))
			if rep.HasRates() && name.RateEligible() {
				cells = append(cells, rateCell(name, d))
				if hasUtil(name) {
					cells = append(cells, utilCell(d))
				}
			}
		}
		t.Row(cells...)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	return notices(w, rep)
}

func notices(w io.Writer, rep report.Report) error {
	var lines []string
	if rep.Raw() {
		lines = append(lines, "No saved baseline; showing raw counter values.")
	} else {
		lines = append(lines, fmt.Sprintf("Changes since %s.", rep.BaselineAt.Format(time.RFC3339)))
	}
	for _, id := range rep.Removed {
		lines = append(lines, fmt.Sprintf("Interface %s is in the baseline but no longer present.", id))
	}
	lines = append(lines, rep.Warnings...)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func deltaCell(d domain.CounterDiff) string {
	if !d.Available() {
		return notAvailable
	}
	return d.Delta.String()
}

func rateCell(name domain.CounterName, d domain.CounterDiff) string {
	if d.RatePerSec == nil {
		return notAvailable
	}
	if strings.HasSuffix(string(name), "_bytes") {
		return formatBytesPerSec(*d.RatePerSec)
	}
	return fmt.Sprintf("%.2f/s", *d.RatePerSec)
}

func utilCell(d domain.CounterDiff) string {
	if d.UtilPercent == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f%%", *d.UtilPercent)
}

func formatBytesPerSec(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.2f GB/s", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.2f MB/s", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.2f KB/s", v/1_000)
	default:
		return fmt.Sprintf("%.2f B/s", v)
	}
}

// hasUtil reports whether a utilization column accompanies the rate;
// only the byte counters relate to line speed.
func hasUtil(name domain.CounterName) bool {
	return strings.HasSuffix(string(name), "_bytes")
}

func columnHeader(name domain.CounterName) string {
	return strings.ToUpper(string(name))
}

func rateHeader(name domain.CounterName) string {
	if strings.HasSuffix(string(name), "_bytes") {
		return prefix(name) + "_BPS"
	}
	return prefix(name) + "_PPS"
}

func utilHeader(name domain.CounterName) string {
	return prefix(name) + "_UTIL"
}

func prefix(name domain.CounterName) string {
	s := strings.ToUpper(string(name))
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}
