//go:build basic

package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	utc     = time.UTC
	plusOne = time.FixedZone("", 3600)
)

// fixtureRepos creates two repositories and a repos file listing them plus a missing one.
//
// alpha: a@example.com commits Monday 2020-01-06 22:30 at +0000, then Wednesday
// 2020-01-08 10:00 at +0100, so +0100 becomes canonical and the first commit moves
// to Monday 23:30. b@example.com only ever commits at +0000, on Saturday 2021-03-06 12:00.
// beta: c@example.com commits Sunday 2021-01-03 08:15 at +0100.
func fixtureRepos(t *testing.T) (string, string) {
	dir := t.TempDir()
	makeRepo(t, dir, "alpha", []fixtureCommit{
		{email: "a@example.com", when: time.Date(2020, 1, 6, 22, 30, 0, 0, utc)},
		{email: "a@example.com", when: time.Date(2020, 1, 8, 10, 0, 0, 0, plusOne)},
		{email: "b@example.com", when: time.Date(2021, 3, 6, 12, 0, 0, 0, utc)},
	})
	makeRepo(t, dir, "beta", []fixtureCommit{
		{email: "c@example.com", when: time.Date(2021, 1, 3, 8, 15, 0, 0, plusOne)},
	})
	reposFile := filepath.Join(dir, "repos.txt")
	require.NoError(t, os.WriteFile(reposFile, []byte("alpha\nbeta\n\nmissing\n"), 0o644))
	return dir, reposFile
}

func binsArgs(reposFile, dir, policy string) []string {
	return []string{
		"bins",
		"--repos-file", reposFile,
		"--repos-path", dir,
		"--start-year", "2020",
		"--end-year", "2021",
		"--policy", policy,
		"--output", "json",
		"--cache-backend", "none",
		"--color", "no",
	}
}

func TestBinsPolicies(t *testing.T) {
	dir, reposFile := fixtureRepos(t)

	tests := []struct {
		policy string
		days   map[int][]int
		hours  map[int][]int
	}{
		{
			policy: "count_all",
			days:   map[int][]int{0: {1, 0}, 2: {1, 0}, 5: {0, 1}, 6: {0, 1}},
			hours:  map[int][]int{23: {1, 0}, 10: {1, 0}, 12: {0, 1}, 8: {0, 1}},
		},
		{
			policy: "require_canonical",
			days:   map[int][]int{0: {1, 0}, 2: {1, 0}, 6: {0, 1}},
			hours:  map[int][]int{23: {1, 0}, 10: {1, 0}, 8: {0, 1}},
		},
		{
			policy: "from_first_canonical",
			days:   map[int][]int{2: {1, 0}, 6: {0, 1}},
			hours:  map[int][]int{10: {1, 0}, 8: {0, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			out, err := runCommitclock(t, dir, binsArgs(reposFile, dir, tt.policy)...)
			require.NoError(t, err)
			doc := decodeBins(t, out)

			assert.Equal(t, tt.policy, doc.Policy)
			assert.Equal(t, []string{"2020", "2021"}, doc.Intervals)
			assert.Equal(t, []string{"missing"}, doc.Failed)
			require.Len(t, doc.Repos, 2)

			assertTable(t, tt.days, doc.countsOf("day"), 7)
			assertTable(t, tt.hours, doc.countsOf("hour"), 24)
		})
	}
}

// assertTable checks the listed rows and that every other row is zero.
func assertTable(t *testing.T, want map[int][]int, got [][]int, slots int) {
	t.Helper()
	require.Len(t, got, slots)
	for slot, row := range got {
		expected, ok := want[slot]
		if !ok {
			expected = []int{0, 0}
		}
		assert.Equal(t, expected, row, "slot %d", slot)
	}
}

func TestDaysSingleRepoTextOutput(t *testing.T) {
	dir, _ := fixtureRepos(t)

	out, err := runCommitclock(t, filepath.Join(dir, "alpha"),
		"days", "--start-year", "2020", "--end-year", "2021", "--cache-backend", "none", "--color", "no")
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Monday")
	assert.Contains(t, text, "Binned 1 repositories")
	assert.NotContains(t, text, "00:00", "days must not print the hour table")
}

func TestBinsOutputDir(t *testing.T) {
	dir, reposFile := fixtureRepos(t)
	outDir := filepath.Join(dir, "results")

	args := binsArgs(reposFile, dir, "count_all")
	args = append(args, "--output", "csv", "--output-file", filepath.Join(dir, "combined.csv"), "--output-dir", outDir)
	_, err := runCommitclock(t, dir, args...)
	require.NoError(t, err)

	for _, name := range []string{
		"CommitCountsPerDay.csv",
		"CommitCountsPerHour.csv",
		filepath.Join("individual_repos", "alpha_CommitCountsPerDay.csv"),
		filepath.Join("individual_repos", "beta_CommitCountsPerHour.csv"),
	} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	data, err := os.ReadFile(filepath.Join(outDir, "CommitCountsPerDay.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Day,2020,2021", lines[0])
	assert.Equal(t, "Monday,1,0", lines[1])
}

func TestBinsSQLiteCacheReuse(t *testing.T) {
	dir, reposFile := fixtureRepos(t)
	cacheFile := filepath.Join(dir, "cache.db")

	args := binsArgs(reposFile, dir, "count_all")
	args = append(args, "--cache-backend", "sqlite", "--cache-db-connect", cacheFile)

	first, err := runCommitclock(t, dir, args...)
	require.NoError(t, err)
	second, err := runCommitclock(t, dir, args...)
	require.NoError(t, err)
	assert.Equal(t, decodeBins(t, first).Combined, decodeBins(t, second).Combined)

	status, err := runCommitclock(t, dir, "cache", "status", "--cache-backend", "sqlite", "--cache-db-connect", cacheFile)
	require.NoError(t, err)
	assert.Contains(t, string(status), "Total Entries: 2")
}

func TestTimezonesAndConsistency(t *testing.T) {
	dir, reposFile := fixtureRepos(t)
	common := []string{"--repos-file", reposFile, "--repos-path", dir, "--cache-backend", "none", "--output", "csv"}

	out, err := runCommitclock(t, dir, append([]string{"timezones"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, string(out), "alpha,+0100,1")
	assert.Contains(t, string(out), "alpha,+0000,2")

	out, err = runCommitclock(t, dir, append([]string{"consistency", "--window-start", "2020", "--windows", "4"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Repo,Total,Threshold,Qualifies,FailedAt")
}

func TestAnalysisTrackingAndExport(t *testing.T) {
	dir, reposFile := fixtureRepos(t)
	analysisFile := filepath.Join(dir, "analysis.db")
	tracking := []string{"--analysis-backend", "sqlite", "--analysis-db-connect", analysisFile}

	args := append(binsArgs(reposFile, dir, "count_all"), tracking...)
	_, err := runCommitclock(t, dir, args...)
	require.NoError(t, err)

	out, err := runCommitclock(t, dir, append([]string{"analysis", "status"}, tracking...)...)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Total Runs: 1")

	exportBase := filepath.Join(dir, "history")
	_, err = runCommitclock(t, dir, append([]string{"analysis", "export", "--output-file", exportBase}, tracking...)...)
	require.NoError(t, err)
	assert.FileExists(t, exportBase+".runs.parquet")
	assert.FileExists(t, exportBase+".bin_cells.parquet")

	_, err = runCommitclock(t, dir, append([]string{"analysis", "clear"}, tracking...)...)
	require.NoError(t, err)
	assert.NoFileExists(t, analysisFile)
}

func TestInvalidConfiguration(t *testing.T) {
	dir, _ := fixtureRepos(t)
	alpha := filepath.Join(dir, "alpha")

	for name, args := range map[string][]string{
		"reversed years":  {"bins", "--start-year", "2022", "--end-year", "2020"},
		"unknown policy":  {"bins", "--policy", "sometimes"},
		"parquet to term": {"bins", "--output", "parquet"},
		"bad shift":       {"ratios", "--shift", "9-25"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := runCommitclock(t, alpha, append(args, "--cache-backend", "none")...)
			assert.Error(t, err)
		})
	}
}
