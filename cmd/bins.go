package cmd

import (
	"github.com/huangsam/commitclock/core"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// binningSetup forces a binning mode before the shared setup runs.
func binningSetup(mode schema.BinningMode) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		viper.Set("binning", string(mode))
		return sharedSetup(rootCtx, cmd, args)
	}
}

// binsCmd bins commits by day of week and hour of day.
var binsCmd = &cobra.Command{
	Use:   "bins [repo-path...]",
	Short: "Count commits per local day of week and hour of day",
	Long: `Count the commits of every repository per local day of week and hour of day,
one column per interval between --start-year and --end-year.

Each contributor's timezone offset is reconciled first: the earliest non-zero
offset they ever committed with becomes their canonical offset. --policy decides
what happens to commits made before that offset is known.

Repositories come from positional paths, or from --repos-file with names
relative to --repos-path.

Examples:
  # Both tables for two repositories, two-year columns
  commitclock bins ~/src/repo-a ~/src/repo-b --interval 2

  # Percentages, only counting contributors with a known offset
  commitclock bins --repos-file repos.txt --repos-path ~/src --contents proportions --policy require_canonical

  # Write combined and per-repository CSV files
  commitclock bins --repos-file repos.txt --output csv --output-dir results`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBins(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Error running bins command", err)
		}
	},
}

// daysCmd is bins restricted to the day of week table.
var daysCmd = &cobra.Command{
	Use:   "days [repo-path...]",
	Short: "Count commits per local day of week",
	Long: `Count commits per local day of week, Monday first.

Same inputs as bins, with --binning fixed to day_of_week.

Examples:
  commitclock days ~/src/repo-a --start-year 2010 --end-year 2019`,
	PreRunE: binningSetup(schema.DayOfWeekBinning),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBins(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Error running days command", err)
		}
	},
}

// hoursCmd is bins restricted to the hour of day table.
var hoursCmd = &cobra.Command{
	Use:   "hours [repo-path...]",
	Short: "Count commits per local hour of day",
	Long: `Count commits per local hour of day, labeled 00:00 through 23:00.

Same inputs as bins, with --binning fixed to hour_of_day.

Examples:
  commitclock hours --repos-file repos.txt --repos-path ~/src --contents proportions`,
	PreRunE: binningSetup(schema.HourOfDayBinning),
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBins(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Error running hours command", err)
		}
	},
}
