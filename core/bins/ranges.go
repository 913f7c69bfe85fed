package bins

import (
	"fmt"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
)

// HourRange is an inclusive range of hours. Start > End wraps past midnight,
// so 22-3 covers 22, 23, 0, 1, 2 and 3.
type HourRange struct {
	Start int
	End   int
}

// ParseHourRange parses "start-end".
func ParseHourRange(s string) (HourRange, error) {
	start, end, err := contract.ParseHourRangeString(s)
	if err != nil {
		return HourRange{}, err
	}
	return HourRange{Start: start, End: end}, nil
}

// String renders the range as "start-end".
func (r HourRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Hours lists the hours covered, in walking order from Start.
func (r HourRange) Hours() []int {
	hours := []int{}
	for h := r.Start; ; h = (h + 1) % 24 {
		hours = append(hours, h)
		if h == r.End || len(hours) == 24 {
			return hours
		}
	}
}

// Len is the number of hours covered.
func (r HourRange) Len() int {
	if r.Start <= r.End {
		return r.End - r.Start + 1
	}
	return 24 - r.Start + r.End + 1
}

// Contains reports whether hour falls inside the range.
func (r HourRange) Contains(hour int) bool {
	if r.Start <= r.End {
		return hour >= r.Start && hour <= r.End
	}
	return hour >= r.Start || hour <= r.End
}

// SumRange adds the cells of an hour table for one interval over the range.
func SumRange(t *schema.BinTable, r HourRange, interval int) int {
	total := 0
	for _, h := range r.Hours() {
		total += t.Get(h, interval)
	}
	return total
}

// RangeTotals returns SumRange for every interval of the table.
func RangeTotals(t *schema.BinTable, r HourRange) []int {
	totals := make([]int, t.Intervals())
	for i := range totals {
		totals[i] = SumRange(t, r, i)
	}
	return totals
}
