package cmd

import (
	"os"

	"github.com/huangsam/commitclock/core"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// insightCmd builds a command that runs one insight executor after the shared setup.
func insightCmd(use, short, long string, exec core.ExecutorFunc) *cobra.Command {
	return &cobra.Command{
		Use:     use + " [repo-path...]",
		Short:   short,
		Long:    long,
		PreRunE: sharedSetupWrapper,
		Run: func(_ *cobra.Command, _ []string) {
			if err := exec(rootCtx, cfg, cacheManager); err != nil {
				contract.LogFatal("Error running "+use+" command", err)
			}
		},
	}
}

var timezonesCmd = insightCmd("timezones",
	"Show how often every timezone offset was committed with",
	`Count the commits of every repository per raw timezone offset, then list the
most common offset of each repository.

Examples:
  commitclock timezones --repos-file repos.txt --repos-path ~/src --output json`,
	core.ExecuteTimezones)

var utcCmd = insightCmd("utc",
	"Show the share of commits made at UTC+0 in one year",
	`Count how many commits of one calendar year carry a +0000 offset, across all
repositories. Defaults to --end-year.

Examples:
  commitclock utc --repos-file repos.txt --repos-path ~/src --year 2015`,
	core.ExecuteUTCShare)

var variationCmd = insightCmd("variation",
	"Show how spread out timezone offsets are per year",
	`Compute per year the number of distinct offsets, the standard deviation and
coefficient of variation of commits per offset, the entropy of the offset
distribution and the UTC+0 share.

Examples:
  commitclock variation --repos-file repos.txt --repos-path ~/src --start-year 2008 --end-year 2020`,
	core.ExecuteVariation)

var contributorsCmd = insightCmd("contributors",
	"Count distinct contributors per year",
	`Count the distinct author emails that committed in each year.

Examples:
  commitclock contributors ~/src/repo-a ~/src/repo-b`,
	core.ExecuteContributors)

var linesCmd = insightCmd("lines",
	"Show inserted lines per commit per year",
	`Sum the inserted lines of every commit per year and divide by the commit count.

Examples:
  commitclock lines --repos-file repos.txt --output csv`,
	core.ExecuteLines)

var ratiosCmd = insightCmd("ratios",
	"Compare weekday to weekend and in-shift to out-of-shift commits",
	`Compute per interval the ratio of weekday to weekend commits and the ratio of
commits inside the --shift hour range to commits outside it. The range may wrap
past midnight, e.g. 22-5.

Examples:
  commitclock ratios --repos-file repos.txt --repos-path ~/src --shift 9-16`,
	core.ExecuteRatios)

// consistencyCmd keeps only repositories that are active in every window.
var consistencyCmd = &cobra.Command{
	Use:   "consistency [repo-path...]",
	Short: "Find repositories with commits in every time window",
	Long: `Split the period starting at --window-start into --windows windows of
--window-months months and check that each window holds at least
total/windows/--threshold-divisor commits.

Unless --policy is given, commits are reconciled with from_first_canonical.

Examples:
  commitclock consistency --repos-file repos.txt --repos-path ~/src --window-start 2004 --windows 40`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfigFile(); err != nil {
			return err
		}
		if !policyGiven(cmd) {
			viper.Set("policy", string(schema.FromFirstCanonical))
		}
		return sharedSetup(rootCtx, cmd, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteConsistency(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Error running consistency command", err)
		}
	},
}

// policyGiven reports whether --policy came from a flag, the environment or the config file.
func policyGiven(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("policy") || viper.InConfig("policy") {
		return true
	}
	_, ok := os.LookupEnv("COMMITCLOCK_POLICY")
	return ok
}
