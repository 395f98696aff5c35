package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jcalabro/cowbloom"
)

// row is one extra line of a report, rendered after the filter statistics.
type row struct {
	name  string
	value string
}

// writeReport renders stats and any extra rows as a two-column table.
func writeReport(w io.Writer, title string, stats cowbloom.Statistics, extra ...row) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	tbl.AppendRows([]table.Row{
		{"Capacity", humanize.Comma(int64(stats.Capacity))},
		{"Bit size", fmt.Sprintf("%s bits (%s)", humanize.Comma(int64(stats.BitSize)), humanize.IBytes((stats.BitSize+7)/8))},
		{"Hash functions (k)", stats.HashFunctions},
		{"Bits set", fmt.Sprintf("%s (%.1f%%)", humanize.Comma(int64(stats.BitsSet)), stats.FillRatio()*100)},
		{"Configured FPP", formatRate(stats.ConfiguredFPP)},
		{"Estimated FPP", formatRate(stats.EstimatedFPP)},
		{"Remaining capacity", humanize.Comma(int64(stats.RemainingCapacity))},
	})

	if len(extra) > 0 {
		tbl.AppendSeparator()
		for _, r := range extra {
			tbl.AppendRow(table.Row{r.name, r.value})
		}
	}

	tbl.Render()
}

// formatRate renders a probability with enough precision for small rates.
func formatRate(p float64) string {
	return strconv.FormatFloat(p, 'g', 4, 64)
}

// verdict labels a measured false positive rate against its target. Up to
// twice the target is accepted as statistical variance.
func verdict(measured, target float64) string {
	if measured <= target*2 {
		return color.New(color.FgGreen, color.Bold).Sprint("PASS")
	}

	return color.New(color.FgRed, color.Bold).Sprint("FAIL")
}
