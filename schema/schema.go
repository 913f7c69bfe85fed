// Package schema has configs, models and constants for all parts of commitclock.
package schema

import (
	"strings"
	"time"
)

// ContributorID is an opaque contributor identity, usually an author email.
// Two commits belong to the same contributor when their IDs are equal.
type ContributorID string

// NormalizeContributor turns a raw identity string into a ContributorID.
func NormalizeContributor(raw string) ContributorID {
	return ContributorID(strings.TrimSpace(raw))
}

// CommitRecord is one commit as reported by the commit source.
type CommitRecord struct {
	Hash         string        `json:"hash"`
	Contributor  ContributorID `json:"contributor"`
	Instant      time.Time     `json:"instant"`    // true UTC instant
	RawOffset    int           `json:"raw_offset"` // recorded UTC offset in minutes, 0 may be a misconfigured client
	LinesAdded   int           `json:"lines_added"`
	LinesDeleted int           `json:"lines_deleted"`
	HasLines     bool          `json:"has_lines"`
}

// OffsetProfile is the per-repository view of one contributor's timezone.
type OffsetProfile struct {
	Contributor     ContributorID `json:"contributor"`
	CanonicalOffset int           `json:"canonical_offset"`
	HasCanonical    bool          `json:"has_canonical"`
	FirstCanonical  time.Time     `json:"first_canonical"` // instant of the commit that set CanonicalOffset
}

// CorrectedCommit is a commit shifted into the contributor's local time.
type CorrectedCommit struct {
	Contributor ContributorID
	Local       time.Time
	Offset      int // effective offset in minutes
	RawOffset   int
	Day         int // Monday = 0 ... Sunday = 6
	Hour        int
	Year        int
	Interval    int
	LinesAdded  int
}

// IntervalConfig is the column axis of every bin table in a run.
type IntervalConfig struct {
	StartYear     int `json:"start_year"`
	EndYear       int `json:"end_year"`
	IntervalYears int `json:"interval_years"`
}

// NumPeriods returns the number of whole intervals inside the window.
func (c IntervalConfig) NumPeriods() int {
	if c.IntervalYears <= 0 || c.EndYear < c.StartYear {
		return 0
	}
	return (c.EndYear - c.StartYear + 1) / c.IntervalYears
}

// Index maps a calendar year to its interval column.
func (c IntervalConfig) Index(year int) (int, bool) {
	if year < c.StartYear || year > c.EndYear || c.IntervalYears <= 0 {
		return 0, false
	}
	idx := (year - c.StartYear) / c.IntervalYears
	if idx >= c.NumPeriods() {
		return 0, false
	}
	return idx, true
}

// RepoDiagnostics counts what happened to the commits of one repository.
type RepoDiagnostics struct {
	Parsed        int  `json:"parsed"`
	Skipped       int  `json:"skipped"` // unparseable or missing instant
	Counted       int  `json:"counted"`
	DroppedPolicy int  `json:"dropped_policy"`
	DroppedWindow int  `json:"dropped_window"`
	DroppedEarly  int  `json:"dropped_before_canonical"`
	Contributors  int  `json:"contributors"`
	WithCanonical int  `json:"contributors_with_canonical"`
	FromCache     bool `json:"from_cache"`
}

// RepoBins is the result of processing one repository.
type RepoBins struct {
	Repo        string          `json:"repo"`
	Tables      []*BinTable     `json:"tables"`
	Complete    bool            `json:"complete"`
	Diagnostics RepoDiagnostics `json:"diagnostics"`
}

// Table returns the table of the given kind, or nil.
func (r RepoBins) Table(kind SlotKind) *BinTable {
	for _, t := range r.Tables {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

// SlotPeak is the answer to a most-active-slot query.
type SlotPeak struct {
	Repo     string   `json:"repo"`
	Kind     SlotKind `json:"kind"`
	Interval string   `json:"interval"`
	Slot     string   `json:"slot"`
	Count    int      `json:"count"`
}

// BinResult is the outcome of a multi-repository binning run.
type BinResult struct {
	Intervals IntervalConfig  `json:"intervals"`
	Policy    InclusionPolicy `json:"policy"`
	Combined  []*BinTable     `json:"combined"`
	Repos     []RepoBins      `json:"repos"`
	Failed    []string        `json:"failed,omitempty"`
	Excluded  []string        `json:"excluded,omitempty"`
	Skipped   int             `json:"skipped"`
}

// CombinedTable returns the combined table of the given kind, or nil.
func (r BinResult) CombinedTable(kind SlotKind) *BinTable {
	for _, t := range r.Combined {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}
