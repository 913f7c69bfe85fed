// Package outwriter has output and writer logic.
package outwriter

import (
	"errors"
	"io"
	"os"

	"github.com/huangsam/commitclock/internal/contract"
	"golang.org/x/term"
)

// errParquetBinsOnly is returned when parquet output is requested for an insight.
var errParquetBinsOnly = errors.New("parquet output is only supported for bin tables")

// OutWriter provides a unified interface for all output operations.
// Text tables and files without a path go to out; notices about written files go to notice.
type OutWriter struct {
	out    io.Writer
	notice io.Writer
}

// NewOutWriter creates a new instance of the output writer on stdout and stderr.
func NewOutWriter() *OutWriter {
	return &OutWriter{out: os.Stdout, notice: os.Stderr}
}

// terminalWidth returns the width override, the detected terminal width, or 80.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}

// maxLabelWidth calculates how wide the repository column of a text table may be,
// given the number of other columns next to it.
func maxLabelWidth(cfg *contract.Config, otherColumns int) int {
	// Every numeric column takes about 12 characters with borders and padding
	available := terminalWidth(cfg) - otherColumns*12 - 10
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
