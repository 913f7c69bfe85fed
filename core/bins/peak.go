package bins

import (
	"github.com/huangsam/commitclock/schema"
)

// MostActiveSlot returns the slot with the highest count in one interval.
// Ties go to the lowest slot index; an all-zero column returns slot 0.
func MostActiveSlot(t *schema.BinTable, interval int) (int, int) {
	best, bestCount := 0, t.Get(0, interval)
	for s := 1; s < t.Slots(); s++ {
		if c := t.Get(s, interval); c > bestCount {
			best, bestCount = s, c
		}
	}
	return best, bestCount
}

// MostActiveOverall returns the slot with the highest row total across all intervals.
func MostActiveOverall(t *schema.BinTable) (int, int) {
	best, bestCount := 0, t.RowTotal(0)
	for s := 1; s < t.Slots(); s++ {
		if c := t.RowTotal(s); c > bestCount {
			best, bestCount = s, c
		}
	}
	return best, bestCount
}

// Peaks answers the most-active-slot query for every interval of a table.
func Peaks(repo string, t *schema.BinTable, cfg schema.IntervalConfig) []schema.SlotPeak {
	labels := IntervalLabels(cfg)
	peaks := make([]schema.SlotPeak, 0, t.Intervals())
	for i := 0; i < t.Intervals() && i < len(labels); i++ {
		slot, count := MostActiveSlot(t, i)
		peaks = append(peaks, schema.SlotPeak{
			Repo:     repo,
			Kind:     t.Kind,
			Interval: labels[i],
			Slot:     SlotLabel(t.Kind, slot),
			Count:    count,
		})
	}
	return peaks
}
