package contract

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	PeakColor    = color.New(color.FgRed, color.Bold) // most active slot of a column
	OKColor      = color.New(color.FgGreen)
	PartialColor = color.New(color.FgYellow)
	FailedColor  = color.New(color.FgMagenta, color.Bold)
)

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when the path is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ReadRepoList reads repository names from a file, one per line.
// Blank lines are ignored.
func ReadRepoList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository list %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var repos []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			repos = append(repos, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read repository list %q: %w", path, err)
	}
	return repos, nil
}

// RepoFileName turns a repository name such as "owner/name" into a safe file stem.
func RepoFileName(repo string) string {
	name := filepath.ToSlash(repo)
	name = strings.Trim(name, "/")
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" || name == "." {
		return "repo"
	}
	return name
}

// TruncateLabel truncates a label to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".commitclock_cache.db"
	}
	return filepath.Join(homeDir, ".commitclock_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".commitclock_analysis.db"
	}
	return filepath.Join(homeDir, ".commitclock_analysis.db")
}
