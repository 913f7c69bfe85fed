package outwriter

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// report is an insight rendered as rows. The text table may differ from the CSV form.
type report struct {
	name       string
	header     []string
	rows       [][]string
	textHeader []string
	textRows   [][]string
	data       any // JSON document
	summary    string
}

// writeReport dispatches a report on the configured output format.
func (ow *OutWriter) writeReport(r report, cfg *contract.Config, duration time.Duration) error {
	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = ow.writeTo(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, r.data)
		}, "Wrote JSON "+r.name)
	case schema.CSVOut:
		err = ow.writeTo(cfg.OutputFile, func(w io.Writer) error {
			return writeCSV(w, r.header, r.rows)
		}, "Wrote CSV "+r.name)
	case schema.ParquetOut:
		err = errParquetBinsOnly
	default:
		err = ow.printReport(r, cfg, duration)
	}
	if err != nil {
		return fmt.Errorf("error writing %s output: %w", r.name, err)
	}
	return nil
}

func (ow *OutWriter) printReport(r report, cfg *contract.Config, duration time.Duration) error {
	header, rows := r.header, r.rows
	if r.textHeader != nil {
		header, rows = r.textHeader, r.textRows
	}

	tbl := tablewriter.NewWriter(ow.out)
	tbl.Header(header)
	tbl.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})
	if err := tbl.Bulk(rows); err != nil {
		return err
	}
	if err := tbl.Render(); err != nil {
		return err
	}
	if r.summary != "" {
		_, _ = fmt.Fprintln(ow.out, r.summary)
	}
	_, _ = fmt.Fprintf(ow.out, "Computed %s for %d repositories in %v with %d workers. Cache backend: %s\n",
		r.name, len(cfg.Repos), duration, cfg.Workers, cfg.CacheBackend)
	return nil
}

// WriteTimezones writes the per-repository timezone distribution.
// CSV is in long format: one row per repository and offset.
func (ow *OutWriter) WriteTimezones(result *schema.TimezoneResult, cfg *contract.Config, duration time.Duration) error {
	labelWidth := maxLabelWidth(cfg, 4)

	var rows, textRows [][]string
	for _, rt := range result.Repos {
		top := make([]string, 0, 3)
		for _, tc := range rt.Timezones {
			rows = append(rows, []string{rt.Repo, tc.Offset, strconv.Itoa(tc.Commits)})
			if len(top) < cap(top) {
				top = append(top, fmt.Sprintf("%s:%d", tc.Offset, tc.Commits))
			}
		}
		textRows = append(textRows, []string{
			contract.TruncateLabel(rt.Repo, labelWidth),
			rt.MostCommon,
			strconv.Itoa(len(rt.Timezones)),
			strings.Join(top, " "),
		})
	}

	var summary strings.Builder
	if len(result.MostCommon) > 0 {
		summary.WriteString("Most common offset per repository:")
		for _, tc := range result.MostCommon {
			fmt.Fprintf(&summary, " %s (%d)", tc.Offset, tc.Commits)
		}
	}

	return ow.writeReport(report{
		name:       "timezones",
		header:     []string{"Repo", "Offset", "Commits"},
		rows:       rows,
		textHeader: []string{"Repo", "Most common", "Offsets", "Top offsets"},
		textRows:   textRows,
		data:       result,
		summary:    summary.String(),
	}, cfg, duration)
}

// WriteUTCShare writes the UTC+0 share of one year.
func (ow *OutWriter) WriteUTCShare(result *schema.UTCShareResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)
	return ow.writeReport(report{
		name:   "utc share",
		header: []string{"Year", "UTC+0 Commits", "Other Commits", "UTC+0 Percent"},
		rows: [][]string{{
			strconv.Itoa(result.Year),
			strconv.Itoa(result.UTCCommits),
			strconv.Itoa(result.Other),
			fmtFloat(result.Percentage),
		}},
		data: result,
	}, cfg, duration)
}

// WriteVariation writes the yearly timezone variation statistics.
func (ow *OutWriter) WriteVariation(result []schema.YearVariation, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)
	rows := make([][]string, 0, len(result))
	for _, v := range result {
		rows = append(rows, []string{
			strconv.Itoa(v.Year),
			strconv.Itoa(v.Commits),
			strconv.Itoa(v.Timezones),
			fmtFloat(v.StdDev),
			fmtFloat(v.CV),
			fmtFloat(v.Entropy),
			fmtFloat(v.UTCPercent),
		})
	}
	return ow.writeReport(report{
		name:   "variation",
		header: []string{"Year", "Commits", "Timezones", "StdDev", "CV", "Entropy", "UTC+0 Percent"},
		rows:   rows,
		data:   result,
	}, cfg, duration)
}

// WriteConsistency writes which repositories stay active in every window.
// CSV carries one column per window; the text table only shows the verdict.
func (ow *OutWriter) WriteConsistency(result []schema.ConsistencyResult, cfg *contract.Config, duration time.Duration) error {
	header := []string{"Repo", "Total", "Threshold", "Qualifies", "FailedAt"}
	if len(result) > 0 {
		for _, w := range result[0].Windows {
			header = append(header, w.Label)
		}
	}
	labelWidth := maxLabelWidth(cfg, 4)

	qualifying := 0
	rows := make([][]string, 0, len(result))
	textRows := make([][]string, 0, len(result))
	for _, r := range result {
		verdict := colorize(cfg, contract.FailedColor, "no")
		if r.Qualifies {
			qualifying++
			verdict = colorize(cfg, contract.OKColor, "yes")
		}
		failedAt := ""
		if r.FailedAt > 0 && r.FailedAt <= len(r.Windows) {
			failedAt = r.Windows[r.FailedAt-1].Label
		}

		row := []string{r.Repo, strconv.Itoa(r.Total), strconv.Itoa(r.Threshold), strconv.FormatBool(r.Qualifies), strconv.Itoa(r.FailedAt)}
		for _, w := range r.Windows {
			row = append(row, strconv.Itoa(w.Commits))
		}
		rows = append(rows, row)
		textRows = append(textRows, []string{
			contract.TruncateLabel(r.Repo, labelWidth),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Threshold),
			verdict,
			failedAt,
		})
	}

	return ow.writeReport(report{
		name:       "consistency",
		header:     header,
		rows:       rows,
		textHeader: []string{"Repo", "Total", "Threshold", "Qualifies", "Failed window"},
		textRows:   textRows,
		data:       result,
		summary:    fmt.Sprintf("%d of %d repositories are active in every window", qualifying, len(result)),
	}, cfg, duration)
}

// WriteContributors writes distinct contributors per year.
func (ow *OutWriter) WriteContributors(result []schema.YearCount, cfg *contract.Config, duration time.Duration) error {
	return ow.writeReport(report{
		name:   "contributors",
		header: []string{"Year", "Contributors"},
		rows:   yearCountRows(result),
		data:   result,
	}, cfg, duration)
}

// WriteLines writes inserted lines per commit per year.
func (ow *OutWriter) WriteLines(result []schema.LinesPerYear, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)
	rows := make([][]string, 0, len(result))
	for _, l := range result {
		rows = append(rows, []string{
			strconv.Itoa(l.Year),
			strconv.Itoa(l.Commits),
			strconv.Itoa(l.LinesAdded),
			fmtFloat(l.LinesPerCommit),
		})
	}
	return ow.writeReport(report{
		name:   "lines",
		header: []string{"Year", "Commits", "LinesAdded", "LinesPerCommit"},
		rows:   rows,
		data:   result,
	}, cfg, duration)
}

// WriteRatios writes the weekday and shift ratios per interval.
func (ow *OutWriter) WriteRatios(result []schema.IntervalRatio, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)
	rows := make([][]string, 0, len(result))
	for _, r := range result {
		rows = append(rows, []string{r.Interval, fmtFloat(r.WeekdayRatio), fmtFloat(r.ShiftRatio)})
	}
	return ow.writeReport(report{
		name:   "ratios",
		header: []string{"Interval", "WeekdayWeekendRatio", "InOutShiftRatio"},
		rows:   rows,
		data:   result,
	}, cfg, duration)
}

// yearCountRows renders year counts in year order.
func yearCountRows(counts []schema.YearCount) [][]string {
	sorted := append([]schema.YearCount(nil), counts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })
	rows := make([][]string, 0, len(sorted))
	for _, c := range sorted {
		rows = append(rows, []string{strconv.Itoa(c.Year), strconv.Itoa(c.Count)})
	}
	return rows
}
