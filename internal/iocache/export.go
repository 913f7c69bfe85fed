package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/internal/parquet"
)

// ExportAnalysis writes every stored run and bin cell of the store to two
// Parquet files next to outputFile.
func ExportAnalysis(w io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is disabled; set --analysis-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total bin cells: %d\n", status.TableSizes[binCellsTable])

	runs, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	cells, err := store.GetAllBinCells()
	if err != nil {
		return fmt.Errorf("failed to retrieve bin cells: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	parquetRuns := parquet.ConvertAnalysisRunRecords(runs)
	if err := parquet.WriteAnalysisRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	cellsFile := outputFile + ".bin_cells.parquet"
	parquetCells := parquet.ConvertBinCellRecords(cells)
	if err := parquet.WriteBinCellsParquet(parquetCells, cellsFile); err != nil {
		return fmt.Errorf("failed to write bin cells: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d bin cells to: %s\n", len(parquetCells), cellsFile)
	return nil
}
