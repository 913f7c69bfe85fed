// Package parquet provides data structures and functions for exporting commit
// activity tables and stored runs to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/commitclock/core/bins"
	"github.com/huangsam/commitclock/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single run with metadata.
// This struct maps to the commitclock_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalRepos   int32 `parquet:"total_repos,snappy"`
	TotalCommits int32 `parquet:"total_commits,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// BinCell is one cell of a bin table in long format.
// Stored cells map to the commitclock_bin_cells table; live results use AnalysisID 0.
type BinCell struct {
	AnalysisID    int64  `parquet:"analysis_id,snappy"`
	Repo          string `parquet:"repo,dict,snappy"`
	Kind          string `parquet:"kind,dict,snappy"`
	Slot          int32  `parquet:"slot,snappy"`
	SlotLabel     string `parquet:"slot_label,dict,snappy"`
	IntervalIndex int32  `parquet:"interval_index,snappy"`
	IntervalLabel string `parquet:"interval_label,dict,snappy"`
	Count         int32  `parquet:"commits,snappy"`
}

// writeParquet writes rows to a new file at outputPath.
func writeParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteAnalysisRunsParquet writes runs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteBinCellsParquet writes bin cells to a Parquet file.
func WriteBinCellsParquet(data []BinCell, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ReadBinCellsParquet reads back a file written by WriteBinCellsParquet.
func ReadBinCellsParquet(path string) ([]BinCell, error) {
	rows, err := parquet.ReadFile[BinCell](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows, nil
}

// ConvertAnalysisRunRecords converts stored runs for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalRepos:    record.TotalRepos,
			TotalCommits:  record.TotalCommits,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertBinCellRecords converts stored bin cells for Parquet export.
func ConvertBinCellRecords(records []schema.BinCellRecord) []BinCell {
	result := make([]BinCell, len(records))
	for i, r := range records {
		result[i] = BinCell{
			AnalysisID:    r.AnalysisID,
			Repo:          r.Repo,
			Kind:          r.Kind,
			Slot:          r.Slot,
			SlotLabel:     r.SlotLabel,
			IntervalIndex: r.IntervalIndex,
			IntervalLabel: r.IntervalLabel,
			Count:         r.Count,
		}
	}
	return result
}

// ConvertBinResult flattens the combined tables and, when perRepo is set, every
// retained repository table into cells.
func ConvertBinResult(result *schema.BinResult, perRepo bool) []BinCell {
	labels := bins.IntervalLabels(result.Intervals)
	var cells []BinCell
	for _, table := range result.Combined {
		cells = appendTable(cells, schema.CombinedScope, table, labels)
	}
	if perRepo {
		for _, rb := range result.Repos {
			for _, table := range rb.Tables {
				cells = appendTable(cells, rb.Repo, table, labels)
			}
		}
	}
	return cells
}

func appendTable(cells []BinCell, repo string, table *schema.BinTable, labels []string) []BinCell {
	for slot := range table.Slots() {
		for interval := range table.Intervals() {
			label := ""
			if interval < len(labels) {
				label = labels[interval]
			}
			cells = append(cells, BinCell{
				Repo:          repo,
				Kind:          string(table.Kind),
				Slot:          int32(slot),
				SlotLabel:     bins.SlotLabel(table.Kind, slot),
				IntervalIndex: int32(interval),
				IntervalLabel: label,
				Count:         int32(table.Get(slot, interval)),
			})
		}
	}
	return cells
}
