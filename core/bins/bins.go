// Package bins has binning, range and peak queries over bin tables.
package bins

import (
	"fmt"
	"strconv"

	"github.com/huangsam/commitclock/schema"
)

// dayNames are the row labels of a day-of-week table, Monday first.
var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Binner accumulates corrected commits into one table per requested kind.
type Binner struct {
	tables []*schema.BinTable
}

// NewBinner creates zeroed tables for the binning mode and interval count.
func NewBinner(mode schema.BinningMode, intervals int) *Binner {
	kinds := mode.Kinds()
	tables := make([]*schema.BinTable, 0, len(kinds))
	for _, kind := range kinds {
		tables = append(tables, schema.NewBinTable(kind, intervals))
	}
	return &Binner{tables: tables}
}

// Observe counts one commit in every table.
func (b *Binner) Observe(cc schema.CorrectedCommit) {
	for _, t := range b.tables {
		switch t.Kind {
		case schema.DaySlot:
			t.Inc(cc.Day, cc.Interval)
		case schema.HourSlot:
			t.Inc(cc.Hour, cc.Interval)
		}
	}
}

// Tables returns the accumulated tables.
func (b *Binner) Tables() []*schema.BinTable {
	return b.tables
}

// SlotLabel names a row of a table of the given kind.
func SlotLabel(kind schema.SlotKind, slot int) string {
	if kind == schema.DaySlot {
		if slot >= 0 && slot < len(dayNames) {
			return dayNames[slot]
		}
		return strconv.Itoa(slot)
	}
	return fmt.Sprintf("%02d:00", slot)
}

// SlotLabels returns every row label for a kind.
func SlotLabels(kind schema.SlotKind) []string {
	labels := make([]string, kind.SlotCount())
	for i := range labels {
		labels[i] = SlotLabel(kind, i)
	}
	return labels
}

// IntervalLabels names the columns of a run: the year for single-year intervals,
// otherwise "first-last".
func IntervalLabels(cfg schema.IntervalConfig) []string {
	n := cfg.NumPeriods()
	labels := make([]string, n)
	for i := range n {
		first := cfg.StartYear + i*cfg.IntervalYears
		if cfg.IntervalYears == 1 {
			labels[i] = strconv.Itoa(first)
		} else {
			labels[i] = fmt.Sprintf("%d-%d", first, first+cfg.IntervalYears-1)
		}
	}
	return labels
}

// HeaderRow returns the column headers for rendering a table of the given kind.
func HeaderRow(kind schema.SlotKind, cfg schema.IntervalConfig) []string {
	first := "Hour"
	if kind == schema.DaySlot {
		first = "Day"
	}
	return append([]string{first}, IntervalLabels(cfg)...)
}
