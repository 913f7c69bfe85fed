package schema

import "time"

// CommitLog is the cached form of a parsed repository history.
type CommitLog struct {
	Records []CommitRecord `json:"records"`
	Skipped int            `json:"skipped"`
}

// AnalysisRunRecord represents a row from the commitclock_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalRepos    int32
	TotalCommits  int32
	ConfigParams  *string
}

// BinCellRecord represents a row from the commitclock_bin_cells table.
// Repo is CombinedScope for the merged table.
type BinCellRecord struct {
	AnalysisID    int64
	Repo          string
	Kind          string
	Slot          int32
	SlotLabel     string
	IntervalIndex int32
	IntervalLabel string
	Count         int32
}

// CombinedScope names the merged table in stored and exported cells.
const CombinedScope = "(combined)"
