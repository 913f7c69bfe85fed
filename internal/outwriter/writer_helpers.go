package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/commitclock/internal/contract"
)

// writeTo runs write against the output file, or against ow.out when no file is set.
func (ow *OutWriter) writeTo(outputFile string, write func(io.Writer) error, successMsg string) (err error) {
	if outputFile == "" {
		return write(ow.out)
	}
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	defer closeInto(&err, file, outputFile)

	if err := write(file); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ow.notice, "💾 %s to %s\n", successMsg, outputFile)
	return nil
}

// closeInto closes c and stores the close error in errp unless errp already holds one.
func closeInto(errp *error, c io.Closer, name string) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("failed to close %s: %w", name, cerr)
	}
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSV writes a header followed by rows and reports any buffered write error.
func writeCSV(w io.Writer, header []string, rows [][]string) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// createFormatters returns the float formatter for the configured precision.
func createFormatters(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}
