package contract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/commitclock/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseInput returns a raw input that passes validation on its own.
func baseInput() *ConfigRawInput {
	return &ConfigRawInput{
		StartYear:    2010,
		EndYear:      2013,
		Interval:     2,
		Policy:       string(schema.CountAll),
		Binning:      string(schema.BothBinning),
		Contents:     string(schema.CountsContents),
		Workers:      4,
		Output:       "text",
		Precision:    2,
		Color:        "yes",
		CacheBackend: string(schema.SQLiteBackend),
		RepoArgs:     []string{"."},
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config"},
		{name: "invalid policy", mutate: func(in *ConfigRawInput) { in.Policy = "most_recent" }, expectError: true},
		{name: "policy is case-insensitive", mutate: func(in *ConfigRawInput) { in.Policy = "FROM_FIRST_CANONICAL" }},
		{name: "invalid binning", mutate: func(in *ConfigRawInput) { in.Binning = "minute" }, expectError: true},
		{name: "invalid contents", mutate: func(in *ConfigRawInput) { in.Contents = "ratios" }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 9 }, expectError: true},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "bad log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "chatty" }, expectError: true},
		{name: "start after end", mutate: func(in *ConfigRawInput) { in.StartYear = 2020 }, expectError: true},
		{name: "zero interval", mutate: func(in *ConfigRawInput) { in.Interval = 0 }, expectError: true},
		{name: "interval wider than window", mutate: func(in *ConfigRawInput) { in.Interval = 10 }, expectError: true},
		{name: "bad shift", mutate: func(in *ConfigRawInput) { in.Shift = "9to5" }, expectError: true},
		{name: "wraparound shift", mutate: func(in *ConfigRawInput) { in.Shift = "22-3" }},
		{name: "window months must divide a year", mutate: func(in *ConfigRawInput) { in.WindowMonths = 5 }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{
			name: "mysql without connection string",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = string(schema.MySQLBackend)
			},
			expectError: true,
		},
		{
			name: "sqlite cache and analysis share one file",
			mutate: func(in *ConfigRawInput) {
				in.CacheDBConnect = "/tmp/commitclock.db"
				in.AnalysisBackend = string(schema.SQLiteBackend)
				in.AnalysisDBConnect = "/tmp/commitclock.db"
			},
			expectError: true,
		},
		{
			name: "sqlite cache and analysis on separate files",
			mutate: func(in *ConfigRawInput) {
				in.AnalysisBackend = string(schema.SQLiteBackend)
				in.AnalysisDBConnect = "/tmp/commitclock-analysis.db"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockGitClient)
			workDir, err := filepath.Abs(".")
			require.NoError(t, err)
			mockClient.On("GetRepoRoot", context.Background(), workDir).Return("/mock/repo/root", nil).Maybe()

			input := baseInput()
			if tt.mutate != nil {
				tt.mutate(input)
			}

			cfg := &Config{}
			err = ProcessAndValidate(context.Background(), cfg, mockClient, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []RepoTarget{{Name: "root", Path: "/mock/repo/root"}}, cfg.Repos)
			assert.Equal(t, 2, cfg.Intervals.NumPeriods())
			mockClient.AssertExpectations(t)
		})
	}
	require.NoError(t, SetLogLevel("info"))
}

func TestProcessAndValidateDefaults(t *testing.T) {
	mockClient := new(MockGitClient)
	workDir, err := filepath.Abs(".")
	require.NoError(t, err)
	mockClient.On("GetRepoRoot", context.Background(), workDir).Return("/mock/repo/root", nil)

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, mockClient, baseInput()))

	assert.Equal(t, schema.CountAll, cfg.Policy)
	assert.Equal(t, 9, cfg.ShiftStart)
	assert.Equal(t, 16, cfg.ShiftEnd)
	assert.Equal(t, 2013, cfg.Year)
	assert.Equal(t, DefaultWindows, cfg.Windows)
	assert.Equal(t, DefaultWindowMonths, cfg.WindowMonths)
	assert.Equal(t, 2010, cfg.WindowStart)
	assert.Equal(t, DefaultThresholdDivisor, cfg.ThresholdDivisor)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidateRepoRootError(t *testing.T) {
	mockClient := new(MockGitClient)
	workDir, err := filepath.Abs(".")
	require.NoError(t, err)
	mockClient.On("GetRepoRoot", context.Background(), workDir).Return("", errors.New("not a git repository"))

	err = ProcessAndValidate(context.Background(), &Config{}, mockClient, baseInput())
	assert.Error(t, err)
	mockClient.AssertExpectations(t)
}

func TestResolveRepositoriesFromFile(t *testing.T) {
	dir := t.TempDir()
	listFile := filepath.Join(dir, "repos.txt")
	require.NoError(t, os.WriteFile(listFile, []byte("golang/go\n\nrust-lang/rust\ngolang/go\n"), 0o644))

	input := baseInput()
	input.RepoArgs = nil
	input.ReposFile = listFile
	input.ReposPath = filepath.Join(dir, "clones")

	// List entries are not resolved through git up front.
	mockClient := new(MockGitClient)
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, mockClient, input))

	require.Len(t, cfg.Repos, 2)
	assert.Equal(t, "golang/go", cfg.Repos[0].Name)
	assert.Equal(t, filepath.Join(dir, "clones", "golang", "go"), cfg.Repos[0].Path)
	assert.Equal(t, "rust-lang/rust", cfg.Repos[1].Name)
	mockClient.AssertNotCalled(t, "GetRepoRoot")
}

func TestResolveRepositoriesEmptyFile(t *testing.T) {
	listFile := filepath.Join(t.TempDir(), "repos.txt")
	require.NoError(t, os.WriteFile(listFile, []byte("\n\n"), 0o644))

	input := baseInput()
	input.ReposFile = listFile

	err := ProcessAndValidate(context.Background(), &Config{}, new(MockGitClient), input)
	assert.ErrorIs(t, err, ErrNoRepositories)
}

func TestParseHourRangeString(t *testing.T) {
	start, end, err := ParseHourRangeString("22-3")
	require.NoError(t, err)
	assert.Equal(t, 22, start)
	assert.Equal(t, 3, end)

	for _, bad := range []string{"", "9", "9-", "a-b", "9-24", "-1-3", "1-2-3"} {
		_, _, err := ParseHourRangeString(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/commitclock", false},
		{schema.MySQLBackend, "user:pass@localhost/commitclock", true},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{schema.PostgreSQLBackend, "host=localhost port=5432 dbname=commitclock", false},
		{schema.PostgreSQLBackend, "port=5432 dbname=commitclock", true},
		{schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Repos: []RepoTarget{{Name: "a", Path: "/a"}}, Workers: 2}
	clone := cfg.Clone()
	clone.Repos[0].Name = "b"
	clone.Workers = 8
	assert.Equal(t, "a", cfg.Repos[0].Name)
	assert.Equal(t, 2, cfg.Workers)
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "run"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "run", profile.Prefix)
}

func TestRevalidateRun(t *testing.T) {
	base := &Config{
		Repos:     []RepoTarget{{Name: "base", Path: "/repos/base"}},
		Intervals: schema.IntervalConfig{StartYear: 2004, EndYear: 2023, IntervalYears: 1},
		Policy:    schema.CountAll,
		Binning:   schema.BothBinning,
	}

	t.Run("no overrides keeps the config", func(t *testing.T) {
		cfg := base.Clone()
		require.NoError(t, RevalidateRun(context.Background(), cfg, new(MockGitClient), RunOverrides{}))
		assert.Equal(t, base, cfg)
	})

	t.Run("window and enums", func(t *testing.T) {
		cfg := base.Clone()
		err := RevalidateRun(context.Background(), cfg, new(MockGitClient), RunOverrides{
			StartYear: 2010, Interval: 2, Policy: "REQUIRE_CANONICAL", Binning: "hour_of_day",
		})
		require.NoError(t, err)
		assert.Equal(t, schema.IntervalConfig{StartYear: 2010, EndYear: 2023, IntervalYears: 2}, cfg.Intervals)
		assert.Equal(t, schema.RequireCanonical, cfg.Policy)
		assert.Equal(t, schema.HourOfDayBinning, cfg.Binning)
		assert.Equal(t, base.Repos, cfg.Repos)
	})

	t.Run("repository paths", func(t *testing.T) {
		cfg := base.Clone()
		mockClient := new(MockGitClient)
		mockClient.On("GetRepoRoot", context.Background(), "/work/project/sub").Return("/work/project", nil)

		require.NoError(t, RevalidateRun(context.Background(), cfg, mockClient, RunOverrides{RepoPaths: []string{"/work/project/sub"}}))
		assert.Equal(t, []RepoTarget{{Name: "project", Path: "/work/project"}}, cfg.Repos)
		assert.Equal(t, "base", base.Repos[0].Name, "The base config is untouched")
		mockClient.AssertExpectations(t)
	})

	t.Run("invalid values", func(t *testing.T) {
		for _, o := range []RunOverrides{
			{StartYear: 2030},
			{Interval: -1},
			{Policy: "latest"},
			{Binning: "minute"},
		} {
			assert.Error(t, RevalidateRun(context.Background(), base.Clone(), new(MockGitClient), o), "%+v", o)
		}
	})

	t.Run("no repositories", func(t *testing.T) {
		cfg := base.Clone()
		cfg.Repos = nil
		assert.ErrorIs(t, RevalidateRun(context.Background(), cfg, new(MockGitClient), RunOverrides{}), ErrNoRepositories)
	})
}
