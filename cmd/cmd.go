// Package cmd defines the command-line interface for commitclock.
package cmd

import (
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(binsCmd)
	rootCmd.AddCommand(daysCmd)
	rootCmd.AddCommand(hoursCmd)
	rootCmd.AddCommand(timezonesCmd)
	rootCmd.AddCommand(utcCmd)
	rootCmd.AddCommand(variationCmd)
	rootCmd.AddCommand(consistencyCmd)
	rootCmd.AddCommand(contributorsCmd)
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(ratiosCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Int("start-year", contract.DefaultStartYear, "First calendar year to count")
	rootCmd.PersistentFlags().Int("end-year", contract.DefaultEndYear, "Last calendar year to count")
	rootCmd.PersistentFlags().Int("interval", contract.DefaultIntervalYears, "Number of years per column")
	rootCmd.PersistentFlags().String("policy", string(schema.CountAll), "Inclusion policy: count_all or require_canonical or from_first_canonical")
	rootCmd.PersistentFlags().String("binning", string(schema.BothBinning), "Tables to build: day_of_week or hour_of_day or both")
	rootCmd.PersistentFlags().String("contents", string(schema.CountsContents), "Table contents: counts or proportions")
	rootCmd.PersistentFlags().String("repos-file", "", "File listing one repository path per line")
	rootCmd.PersistentFlags().String("repos-path", "", "Base directory the entries of --repos-file are relative to")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Bool("exclude-partial", false, "Leave repositories whose history could not be fully read out of the combined tables")
	rootCmd.PersistentFlags().Bool("fail-fast", false, "Abort the run on the first repository failure")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics of the run to this textfile")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory for combined and per-repository CSV tables")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of utcCmd to Viper
	utcCmd.Flags().Int("year", 0, "Calendar year to inspect (0 = end-year)")
	if err := viper.BindPFlags(utcCmd.Flags()); err != nil {
		contract.LogFatal("Error binding utc flags", err)
	}

	// Bind all flags of ratiosCmd to Viper
	ratiosCmd.Flags().String("shift", contract.DefaultShift, "Working hours as start-end, may wrap past midnight (e.g. 22-5)")
	if err := viper.BindPFlags(ratiosCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ratios flags", err)
	}

	// Bind all flags of consistencyCmd to Viper
	consistencyCmd.Flags().Int("windows", contract.DefaultWindows, "Number of consecutive windows")
	consistencyCmd.Flags().Int("window-months", contract.DefaultWindowMonths, "Months per window, must divide 12")
	consistencyCmd.Flags().Int("window-start", 0, "Year the first window starts in (0 = start-year)")
	consistencyCmd.Flags().Int("threshold-divisor", contract.DefaultThresholdDivisor, "Each window needs total/windows/divisor commits")
	if err := viper.BindPFlags(consistencyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding consistency flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
