package schema

// TimezoneCount is the number of commits recorded under one raw offset.
type TimezoneCount struct {
	Offset  string `json:"offset"` // ±HHMM
	Commits int    `json:"commits"`
}

// RepoTimezones is the timezone distribution of one repository.
type RepoTimezones struct {
	Repo       string          `json:"repo"`
	Timezones  []TimezoneCount `json:"timezones"`
	MostCommon string          `json:"most_common,omitempty"`
}

// TimezoneResult holds per-repository distributions and how often each
// offset is the most common one across repositories.
type TimezoneResult struct {
	Repos      []RepoTimezones `json:"repos"`
	MostCommon []TimezoneCount `json:"most_common"` // Commits holds the repository count here
}

// UTCShareResult is the share of commits recorded at UTC+0 in one year.
type UTCShareResult struct {
	Year       int     `json:"year"`
	UTCCommits int     `json:"utc_commits"`
	Other      int     `json:"other_commits"`
	Percentage float64 `json:"percentage"`
}

// YearVariation describes how commits spread across timezones in one year.
type YearVariation struct {
	Year       int     `json:"year"`
	Commits    int     `json:"commits"`
	Timezones  int     `json:"timezones"`
	StdDev     float64 `json:"std_dev"`
	CV         float64 `json:"cv"`
	Entropy    float64 `json:"entropy"`
	UTCPercent float64 `json:"utc_percent"`
}

// ConsistencyWindow is one calendar window of a consistency check.
type ConsistencyWindow struct {
	Label   string `json:"label"`
	Commits int    `json:"commits"`
}

// ConsistencyResult tells whether a repository is active enough in every window.
type ConsistencyResult struct {
	Repo      string              `json:"repo"`
	Total     int                 `json:"total"`
	Threshold int                 `json:"threshold"`
	Windows   []ConsistencyWindow `json:"windows"`
	Qualifies bool                `json:"qualifies"`
	FailedAt  int                 `json:"failed_at"` // 1-based window index, 0 when it qualifies or has no commits
}

// YearCount is a single per-year number.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// LinesPerYear summarizes inserted lines per commit in one year.
type LinesPerYear struct {
	Year           int     `json:"year"`
	Commits        int     `json:"commits"`
	LinesAdded     int     `json:"lines_added"`
	LinesPerCommit float64 `json:"lines_per_commit"`
}

// IntervalRatio holds the weekday and shift ratios of one interval column.
type IntervalRatio struct {
	Interval     string  `json:"interval"`
	WeekdayRatio float64 `json:"weekday_weekend_ratio"`
	ShiftRatio   float64 `json:"in_out_shift_ratio"`
}
