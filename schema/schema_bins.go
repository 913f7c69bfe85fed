package schema

// BinTable is a dense slot x interval grid of commit counts.
// Cells only ever grow; tables are merged by cell-wise summation.
type BinTable struct {
	Kind   SlotKind `json:"kind"`
	Counts [][]int  `json:"counts"` // Counts[slot][interval]
}

// NewBinTable returns an all-zero table for the kind and number of intervals.
func NewBinTable(kind SlotKind, intervals int) *BinTable {
	counts := make([][]int, kind.SlotCount())
	for i := range counts {
		counts[i] = make([]int, intervals)
	}
	return &BinTable{Kind: kind, Counts: counts}
}

// Slots returns the number of rows.
func (t *BinTable) Slots() int {
	return len(t.Counts)
}

// Intervals returns the number of columns.
func (t *BinTable) Intervals() int {
	if len(t.Counts) == 0 {
		return 0
	}
	return len(t.Counts[0])
}

// Inc adds one commit to a cell. Out-of-range keys are ignored.
func (t *BinTable) Inc(slot, interval int) {
	if slot < 0 || slot >= t.Slots() || interval < 0 || interval >= t.Intervals() {
		return
	}
	t.Counts[slot][interval]++
}

// Get returns a cell, or 0 for out-of-range keys.
func (t *BinTable) Get(slot, interval int) int {
	if slot < 0 || slot >= t.Slots() || interval < 0 || interval >= t.Intervals() {
		return 0
	}
	return t.Counts[slot][interval]
}

// SameShape reports whether both tables can be merged.
func (t *BinTable) SameShape(other *BinTable) bool {
	return other != nil && t.Kind == other.Kind && t.Slots() == other.Slots() && t.Intervals() == other.Intervals()
}

// AddTable sums other into t cell by cell. Callers check SameShape first.
func (t *BinTable) AddTable(other *BinTable) {
	for s := range t.Counts {
		for i := range t.Counts[s] {
			t.Counts[s][i] += other.Counts[s][i]
		}
	}
}

// ColumnTotal sums one interval column over all slots.
func (t *BinTable) ColumnTotal(interval int) int {
	total := 0
	for s := range t.Counts {
		total += t.Get(s, interval)
	}
	return total
}

// RowTotal sums one slot over all intervals.
func (t *BinTable) RowTotal(slot int) int {
	total := 0
	for i := 0; i < t.Intervals(); i++ {
		total += t.Get(slot, i)
	}
	return total
}

// Total sums every cell.
func (t *BinTable) Total() int {
	total := 0
	for s := range t.Counts {
		total += t.RowTotal(s)
	}
	return total
}

// Percentages returns the per-column percentage view of the table.
// A column whose total is zero is zero in every slot.
func (t *BinTable) Percentages() [][]float64 {
	out := make([][]float64, t.Slots())
	for s := range out {
		out[s] = make([]float64, t.Intervals())
	}
	for i := 0; i < t.Intervals(); i++ {
		total := t.ColumnTotal(i)
		if total == 0 {
			continue
		}
		for s := range out {
			out[s][i] = 100 * float64(t.Counts[s][i]) / float64(total)
		}
	}
	return out
}

// Clone returns a deep copy.
func (t *BinTable) Clone() *BinTable {
	c := &BinTable{Kind: t.Kind, Counts: make([][]int, len(t.Counts))}
	for s := range t.Counts {
		c.Counts[s] = append([]int(nil), t.Counts[s]...)
	}
	return c
}
