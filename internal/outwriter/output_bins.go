package outwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/commitclock/core/bins"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/internal/parquet"
	"github.com/huangsam/commitclock/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// individualReposDir is the subdirectory of --output-dir holding per-repository files.
const individualReposDir = "individual_repos"

// tableJSON is the JSON form of one bin table.
type tableJSON struct {
	Kind        schema.SlotKind   `json:"kind"`
	Slots       []string          `json:"slots"`
	Counts      [][]int           `json:"counts,omitempty"`
	Percentages [][]float64       `json:"percentages,omitempty"`
	MostActive  []schema.SlotPeak `json:"most_active"`
}

// repoJSON is the JSON form of one repository of a run.
type repoJSON struct {
	Repo        string                 `json:"repo"`
	Complete    bool                   `json:"complete"`
	Diagnostics schema.RepoDiagnostics `json:"diagnostics"`
	Tables      []tableJSON            `json:"tables"`
}

// binsJSON is the JSON document written for a run.
type binsJSON struct {
	Intervals []string               `json:"intervals"`
	Policy    schema.InclusionPolicy `json:"policy"`
	Contents  schema.ContentsMode    `json:"contents"`
	Combined  []tableJSON            `json:"combined"`
	Repos     []repoJSON             `json:"repos"`
	Failed    []string               `json:"failed,omitempty"`
	Excluded  []string               `json:"excluded,omitempty"`
	Skipped   int                    `json:"skipped"`
}

// WriteBins writes the combined tables of a run using the configured output format.
// With --output-dir it also writes one CSV per table and repository.
func (ow *OutWriter) WriteBins(result *schema.BinResult, cfg *contract.Config, duration time.Duration) error {
	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = ow.writeTo(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, newBinsJSON(result, cfg))
		}, "Wrote JSON bin tables")
	case schema.CSVOut:
		err = ow.writeTo(cfg.OutputFile, func(w io.Writer) error {
			return writeBinsCSV(w, result, cfg)
		}, "Wrote CSV bin tables")
	case schema.ParquetOut:
		cells := parquet.ConvertBinResult(result, true)
		if err = parquet.WriteBinCellsParquet(cells, cfg.OutputFile); err == nil {
			_, _ = fmt.Fprintf(ow.notice, "💾 Wrote %d bin cells to %s\n", len(cells), cfg.OutputFile)
		}
	default:
		err = ow.printBinTables(result, cfg, duration)
	}
	if err != nil {
		return fmt.Errorf("error writing %s output: %w", cfg.Output, err)
	}

	if cfg.OutputDir != "" {
		return ow.writeBinsDir(result, cfg)
	}
	return nil
}

// tableRows renders the rows of a table: a slot label followed by one value per interval.
func tableRows(table *schema.BinTable, cfg *contract.Config) [][]string {
	fmtFloat := createFormatters(cfg.Precision)
	var pct [][]float64
	if cfg.Contents == schema.ProportionsContents {
		pct = table.Percentages()
	}

	rows := make([][]string, table.Slots())
	for slot := range rows {
		row := make([]string, 0, table.Intervals()+1)
		row = append(row, bins.SlotLabel(table.Kind, slot))
		for interval := range table.Intervals() {
			if pct != nil {
				row = append(row, fmtFloat(pct[slot][interval]))
			} else {
				row = append(row, strconv.Itoa(table.Get(slot, interval)))
			}
		}
		rows[slot] = row
	}
	return rows
}

// writeBinsCSV writes every combined table. Tables are separated by an empty line.
func writeBinsCSV(w io.Writer, result *schema.BinResult, cfg *contract.Config) error {
	for i, table := range result.Combined {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := writeCSV(w, bins.HeaderRow(table.Kind, result.Intervals), tableRows(table, cfg)); err != nil {
			return err
		}
	}
	return nil
}

func newTableJSON(repo string, table *schema.BinTable, cfg *contract.Config, intervals schema.IntervalConfig) tableJSON {
	tj := tableJSON{
		Kind:       table.Kind,
		Slots:      bins.SlotLabels(table.Kind),
		MostActive: bins.Peaks(repo, table, intervals),
	}
	if cfg.Contents == schema.ProportionsContents {
		tj.Percentages = table.Percentages()
	} else {
		tj.Counts = table.Counts
	}
	return tj
}

func newBinsJSON(result *schema.BinResult, cfg *contract.Config) binsJSON {
	doc := binsJSON{
		Intervals: bins.IntervalLabels(result.Intervals),
		Policy:    result.Policy,
		Contents:  cfg.Contents,
		Combined:  make([]tableJSON, 0, len(result.Combined)),
		Repos:     make([]repoJSON, 0, len(result.Repos)),
		Failed:    result.Failed,
		Excluded:  result.Excluded,
		Skipped:   result.Skipped,
	}
	for _, table := range result.Combined {
		doc.Combined = append(doc.Combined, newTableJSON(schema.CombinedScope, table, cfg, result.Intervals))
	}
	for _, rb := range result.Repos {
		rj := repoJSON{Repo: rb.Repo, Complete: rb.Complete, Diagnostics: rb.Diagnostics}
		for _, table := range rb.Tables {
			rj.Tables = append(rj.Tables, newTableJSON(rb.Repo, table, cfg, result.Intervals))
		}
		doc.Repos = append(doc.Repos, rj)
	}
	return doc
}

// printBinTables prints each combined table, a per-repository summary and a footer.
func (ow *OutWriter) printBinTables(result *schema.BinResult, cfg *contract.Config, duration time.Duration) error {
	for _, table := range result.Combined {
		if err := ow.printBinTable(table, result.Intervals, cfg); err != nil {
			return err
		}
		slot, count := bins.MostActiveOverall(table)
		_, _ = fmt.Fprintf(ow.out, "Most active %s overall: %s (%d commits)\n\n", table.Kind, bins.SlotLabel(table.Kind, slot), count)
	}

	if len(result.Repos) > 0 {
		if err := ow.printRepoSummary(result, cfg); err != nil {
			return err
		}
	}

	for _, repo := range result.Excluded {
		_, _ = fmt.Fprintf(ow.out, "%s was read partially and left out of the combined tables\n", colorize(cfg, contract.PartialColor, repo))
	}
	for _, repo := range result.Failed {
		_, _ = fmt.Fprintf(ow.out, "%s could not be read\n", colorize(cfg, contract.FailedColor, repo))
	}
	_, _ = fmt.Fprintf(ow.out, "Binned %d repositories in %v with %d workers (%s). Skipped commits: %d. Cache backend: %s\n",
		len(result.Repos), duration, cfg.Workers, result.Policy, result.Skipped, cfg.CacheBackend)
	return nil
}

// printBinTable renders one table with the most active slot of every column highlighted.
func (ow *OutWriter) printBinTable(table *schema.BinTable, intervals schema.IntervalConfig, cfg *contract.Config) error {
	rows := tableRows(table, cfg)
	for interval := range table.Intervals() {
		if table.ColumnTotal(interval) == 0 {
			continue
		}
		slot, _ := bins.MostActiveSlot(table, interval)
		rows[slot][interval+1] = colorize(cfg, contract.PeakColor, rows[slot][interval+1])
	}

	tbl := tablewriter.NewWriter(ow.out)
	tbl.Header(bins.HeaderRow(table.Kind, intervals))
	tbl.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	if err := tbl.Bulk(rows); err != nil {
		return err
	}
	return tbl.Render()
}

// printRepoSummary prints what happened to every retained repository.
func (ow *OutWriter) printRepoSummary(result *schema.BinResult, cfg *contract.Config) error {
	header := []string{"Repo", "Status", "Counted", "Skipped", "Dropped"}
	for _, kind := range kindsOf(result) {
		header = append(header, "Top "+string(kind))
	}
	labelWidth := maxLabelWidth(cfg, len(header)-1)

	data := make([][]string, 0, len(result.Repos))
	for _, rb := range result.Repos {
		d := rb.Diagnostics
		status := colorize(cfg, contract.OKColor, "ok")
		if !rb.Complete {
			status = colorize(cfg, contract.PartialColor, "partial")
		}
		row := []string{
			contract.TruncateLabel(rb.Repo, labelWidth),
			status,
			strconv.Itoa(d.Counted),
			strconv.Itoa(d.Skipped),
			strconv.Itoa(d.DroppedPolicy + d.DroppedWindow + d.DroppedEarly),
		}
		for _, table := range rb.Tables {
			slot, _ := bins.MostActiveOverall(table)
			row = append(row, bins.SlotLabel(table.Kind, slot))
		}
		data = append(data, row)
	}

	tbl := tablewriter.NewWriter(ow.out)
	tbl.Header(header)
	if err := tbl.Bulk(data); err != nil {
		return err
	}
	return tbl.Render()
}

// kindsOf returns the slot kinds present in a run, in table order.
func kindsOf(result *schema.BinResult) []schema.SlotKind {
	kinds := make([]schema.SlotKind, 0, len(result.Combined))
	for _, table := range result.Combined {
		kinds = append(kinds, table.Kind)
	}
	return kinds
}

// csvFileName names a table file the way the research scripts did,
// e.g. CommitCountsPerDay.csv or CommitPercentagesPerHour.csv.
func csvFileName(kind schema.SlotKind, contents schema.ContentsMode) string {
	measure := "Counts"
	if contents == schema.ProportionsContents {
		measure = "Percentages"
	}
	unit := "Hour"
	if kind == schema.DaySlot {
		unit = "Day"
	}
	return fmt.Sprintf("Commit%sPer%s.csv", measure, unit)
}

// writeBinsDir writes the combined tables into dir and every repository table
// into dir/individual_repos.
func (ow *OutWriter) writeBinsDir(result *schema.BinResult, cfg *contract.Config) error {
	repoDir := filepath.Join(cfg.OutputDir, individualReposDir)
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, table := range result.Combined {
		path := filepath.Join(cfg.OutputDir, csvFileName(table.Kind, cfg.Contents))
		if err := writeTableFile(path, table, result.Intervals, cfg); err != nil {
			return err
		}
	}

	written := 0
	for _, rb := range result.Repos {
		prefix := contract.RepoFileName(rb.Repo) + "_"
		for _, table := range rb.Tables {
			path := filepath.Join(repoDir, prefix+csvFileName(table.Kind, cfg.Contents))
			if err := writeTableFile(path, table, result.Intervals, cfg); err != nil {
				return err
			}
			written++
		}
	}
	_, _ = fmt.Fprintf(ow.notice, "💾 Wrote %d repository files to %s\n", written, repoDir)
	return nil
}

func writeTableFile(path string, table *schema.BinTable, intervals schema.IntervalConfig, cfg *contract.Config) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer closeInto(&err, file, path)
	if err := writeCSV(file, bins.HeaderRow(table.Kind, intervals), tableRows(table, cfg)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// colorize applies c to s when colors are enabled.
func colorize(cfg *contract.Config, c *color.Color, s string) string {
	if !cfg.UseColors {
		return s
	}
	return c.Sprint(s)
}
