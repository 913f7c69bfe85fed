package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// InclusionPolicy decides which reconciled commits are counted.
	InclusionPolicy string

	// BinningMode selects the slot axes a run produces.
	BinningMode string

	// SlotKind is the row axis of a bin table.
	SlotKind string

	// ContentsMode selects raw counts or the percentage view on output.
	ContentsMode string

	// DropReason explains why a commit was not counted.
	DropReason string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Inclusion policies.
const (
	// CountAll counts every commit, under the canonical offset when one exists.
	CountAll InclusionPolicy = "count_all" // default
	// RequireCanonical counts only contributors that have a canonical offset.
	RequireCanonical InclusionPolicy = "require_canonical"
	// FromFirstCanonical counts a contributor's commits from their first
	// non-zero-offset commit onward.
	FromFirstCanonical InclusionPolicy = "from_first_canonical"
)

// Binning modes.
const (
	DayOfWeekBinning BinningMode = "day_of_week"
	HourOfDayBinning BinningMode = "hour_of_day"
	BothBinning      BinningMode = "both" // default
)

// Slot kinds.
const (
	DaySlot  SlotKind = "day"
	HourSlot SlotKind = "hour"
)

// Contents modes.
const (
	CountsContents      ContentsMode = "counts" // default
	ProportionsContents ContentsMode = "proportions"
)

// Drop reasons.
const (
	NotDropped          DropReason = ""
	DropPolicy          DropReason = "policy"
	DropWindow          DropReason = "window"
	DropBeforeCanonical DropReason = "before_canonical"
)

// SlotCount returns the number of rows for a slot kind.
func (k SlotKind) SlotCount() int {
	if k == HourSlot {
		return 24
	}
	return 7
}

// Kinds returns the slot kinds a binning mode produces, days first.
func (m BinningMode) Kinds() []SlotKind {
	switch m {
	case DayOfWeekBinning:
		return []SlotKind{DaySlot}
	case HourOfDayBinning:
		return []SlotKind{HourSlot}
	default:
		return []SlotKind{DaySlot, HourSlot}
	}
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidInclusionPolicies lists all valid inclusion policies.
var ValidInclusionPolicies = map[InclusionPolicy]struct{}{
	CountAll:           {},
	RequireCanonical:   {},
	FromFirstCanonical: {},
}

// ValidBinningModes lists all valid binning modes.
var ValidBinningModes = map[BinningMode]struct{}{
	DayOfWeekBinning: {},
	HourOfDayBinning: {},
	BothBinning:      {},
}

// ValidContentsModes lists all valid contents modes.
var ValidContentsModes = map[ContentsMode]struct{}{
	CountsContents:      {},
	ProportionsContents: {},
}
