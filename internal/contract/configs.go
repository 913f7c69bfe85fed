package contract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/huangsam/commitclock/schema"
)

// Default values for configuration.
const (
	DefaultStartYear        = 2004
	DefaultEndYear          = 2023
	DefaultIntervalYears    = 1
	DefaultPrecision        = 2
	DefaultShift            = "9-16"
	DefaultWindows          = 40
	DefaultWindowMonths     = 6
	DefaultThresholdDivisor = 5
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ErrNoRepositories is returned when no repository could be resolved from the inputs.
var ErrNoRepositories = errors.New("no repositories to analyze")

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// RepoTarget is one repository to analyze.
type RepoTarget struct {
	Name string // display name, e.g. "owner/project"
	Path string // absolute path to the working tree
}

// Config holds the runtime configuration for the analysis.
// This struct is the "final, validated" config.
type Config struct {
	Repos []RepoTarget

	Intervals schema.IntervalConfig
	Policy    schema.InclusionPolicy
	Binning   schema.BinningMode
	Contents  schema.ContentsMode

	Workers        int
	ExcludePartial bool // drop repositories whose scan did not finish from the combined table
	FailFast       bool // abort the run on the first repository failure
	MetricsFile    string

	Output     schema.OutputMode
	OutputFile string
	OutputDir  string // per-repository CSV files are written here when set
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	// Insight parameters
	ShiftStart       int
	ShiftEnd         int
	Year             int
	Windows          int
	WindowMonths     int
	WindowStart      int
	ThresholdDivisor int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	StartYear         int    `mapstructure:"start-year"`
	EndYear           int    `mapstructure:"end-year"`
	Interval          int    `mapstructure:"interval"`
	Policy            string `mapstructure:"policy"`
	Binning           string `mapstructure:"binning"`
	Contents          string `mapstructure:"contents"`
	ReposFile         string `mapstructure:"repos-file"`
	ReposPath         string `mapstructure:"repos-path"`
	Workers           int    `mapstructure:"workers"`
	ExcludePartial    bool   `mapstructure:"exclude-partial"`
	FailFast          bool   `mapstructure:"fail-fast"`
	MetricsFile       string `mapstructure:"metrics-file"`
	LogLevel          string `mapstructure:"log-level"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	OutputDir         string `mapstructure:"output-dir"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Fields from insight commands ---
	Shift            string `mapstructure:"shift"`
	Year             int    `mapstructure:"year"`
	Windows          int    `mapstructure:"windows"`
	WindowMonths     int    `mapstructure:"window-months"`
	WindowStart      int    `mapstructure:"window-start"`
	ThresholdDivisor int    `mapstructure:"threshold-divisor"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Repos != nil {
		clone.Repos = make([]RepoTarget, len(c.Repos))
		copy(clone.Repos, c.Repos)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := SetLogLevel(input.LogLevel); err != nil {
		return err
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processIntervals(cfg, input); err != nil {
		return err
	}
	if err := processInsightInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveRepositories(ctx, cfg, client, input)
}

// validateSimpleInputs processes and validates enum and numeric fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.OutputDir = input.OutputDir
	cfg.Width = input.Width
	cfg.ExcludePartial = input.ExcludePartial
	cfg.FailFast = input.FailFast
	cfg.MetricsFile = input.MetricsFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 0 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 0 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Policy = schema.InclusionPolicy(strings.ToLower(input.Policy))
	if _, ok := schema.ValidInclusionPolicies[cfg.Policy]; !ok {
		return fmt.Errorf("invalid policy '%s'. must be count_all, require_canonical, from_first_canonical", input.Policy)
	}

	cfg.Binning = schema.BinningMode(strings.ToLower(input.Binning))
	if _, ok := schema.ValidBinningModes[cfg.Binning]; !ok {
		return fmt.Errorf("invalid binning mode '%s'. must be day_of_week, hour_of_day, both", input.Binning)
	}

	cfg.Contents = schema.ContentsMode(strings.ToLower(input.Contents))
	if _, ok := schema.ValidContentsModes[cfg.Contents]; !ok {
		return fmt.Errorf("invalid contents '%s'. must be counts, proportions", input.Contents)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return errors.New("--output-file is required for parquet output")
	}
	return nil
}

// processIntervals validates the calendar window shared by every table of a run.
// Inconsistent interval settings are a configuration error, caught here once.
func processIntervals(cfg *Config, input *ConfigRawInput) error {
	if input.StartYear > input.EndYear {
		return fmt.Errorf("start-year must not be after end-year (received %d > %d)", input.StartYear, input.EndYear)
	}
	if input.Interval < 1 {
		return fmt.Errorf("interval must be a positive number of years (received %d)", input.Interval)
	}
	cfg.Intervals = schema.IntervalConfig{
		StartYear:     input.StartYear,
		EndYear:       input.EndYear,
		IntervalYears: input.Interval,
	}
	if cfg.Intervals.NumPeriods() == 0 {
		return fmt.Errorf("interval of %d years does not fit in %d-%d", input.Interval, input.StartYear, input.EndYear)
	}
	return nil
}

// processInsightInputs validates the parameters used by the insight commands.
func processInsightInputs(cfg *Config, input *ConfigRawInput) error {
	shift := input.Shift
	if shift == "" {
		shift = DefaultShift
	}
	start, end, err := ParseHourRangeString(shift)
	if err != nil {
		return fmt.Errorf("invalid --shift value: %w", err)
	}
	cfg.ShiftStart, cfg.ShiftEnd = start, end

	cfg.Year = input.Year
	if cfg.Year == 0 {
		cfg.Year = input.EndYear
	}

	cfg.Windows = input.Windows
	if cfg.Windows <= 0 {
		cfg.Windows = DefaultWindows
	}
	cfg.WindowMonths = input.WindowMonths
	if cfg.WindowMonths <= 0 {
		cfg.WindowMonths = DefaultWindowMonths
	}
	if 12%cfg.WindowMonths != 0 {
		return fmt.Errorf("window-months must divide 12 (received %d)", cfg.WindowMonths)
	}
	cfg.WindowStart = input.WindowStart
	if cfg.WindowStart == 0 {
		cfg.WindowStart = input.StartYear
	}
	cfg.ThresholdDivisor = input.ThresholdDivisor
	if cfg.ThresholdDivisor <= 0 {
		cfg.ThresholdDivisor = DefaultThresholdDivisor
	}
	return nil
}

// ParseHourRangeString parses "start-end" hours, e.g. "9-16" or "22-3".
func ParseHourRangeString(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected 'start-end', got %q", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start hour %q: %w", parts[0], err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end hour %q: %w", parts[1], err)
	}
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return 0, 0, fmt.Errorf("hours must be between 0 and 23, got %d-%d", start, end)
	}
	return start, end, nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// resolveRepositories builds the repository list from --repos-file/--repos-path
// or from positional arguments. A single positional path is resolved to its
// git root up front; list entries are checked when they are scanned so that
// one missing clone does not abort the run.
func resolveRepositories(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	var targets []RepoTarget

	if input.ReposFile != "" {
		names, err := ReadRepoList(input.ReposFile)
		if err != nil {
			return err
		}
		for _, name := range names {
			abs, err := filepath.Abs(filepath.Join(input.ReposPath, name))
			if err != nil {
				return err
			}
			targets = append(targets, RepoTarget{Name: name, Path: abs})
		}
	} else {
		args := input.RepoArgs
		if len(args) == 0 {
			args = []string{"."}
		}
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			targets = append(targets, RepoTarget{Name: filepath.Base(abs), Path: abs})
		}
		if len(targets) == 1 {
			root, err := client.GetRepoRoot(ctx, targets[0].Path)
			if err != nil {
				return err
			}
			targets[0] = RepoTarget{Name: filepath.Base(root), Path: root}
		}
	}

	seen := make(map[string]struct{}, len(targets))
	cfg.Repos = cfg.Repos[:0]
	for _, t := range targets {
		if _, ok := seen[t.Path]; ok {
			continue
		}
		seen[t.Path] = struct{}{}
		cfg.Repos = append(cfg.Repos, t)
	}
	if len(cfg.Repos) == 0 {
		return ErrNoRepositories
	}
	return nil
}

// RunOverrides are per-request changes to a validated Config, as sent by MCP clients.
// Zero values keep the current setting.
type RunOverrides struct {
	RepoPaths []string
	StartYear int
	EndYear   int
	Interval  int
	Policy    string
	Binning   string
}

// RevalidateRun applies overrides to cfg, which should be a clone, and validates the result.
func RevalidateRun(ctx context.Context, cfg *Config, client GitClient, o RunOverrides) error {
	input := &ConfigRawInput{
		StartYear: cfg.Intervals.StartYear,
		EndYear:   cfg.Intervals.EndYear,
		Interval:  cfg.Intervals.IntervalYears,
		RepoArgs:  o.RepoPaths,
	}
	if o.StartYear != 0 {
		input.StartYear = o.StartYear
	}
	if o.EndYear != 0 {
		input.EndYear = o.EndYear
	}
	if o.Interval != 0 {
		input.Interval = o.Interval
	}
	if err := processIntervals(cfg, input); err != nil {
		return err
	}

	if o.Policy != "" {
		policy := schema.InclusionPolicy(strings.ToLower(o.Policy))
		if _, ok := schema.ValidInclusionPolicies[policy]; !ok {
			return fmt.Errorf("invalid policy '%s'. must be count_all, require_canonical, from_first_canonical", o.Policy)
		}
		cfg.Policy = policy
	}
	if o.Binning != "" {
		binning := schema.BinningMode(strings.ToLower(o.Binning))
		if _, ok := schema.ValidBinningModes[binning]; !ok {
			return fmt.Errorf("invalid binning mode '%s'. must be day_of_week, hour_of_day, both", o.Binning)
		}
		cfg.Binning = binning
	}

	if len(o.RepoPaths) > 0 {
		return resolveRepositories(ctx, cfg, client, input)
	}
	if len(cfg.Repos) == 0 {
		return ErrNoRepositories
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
