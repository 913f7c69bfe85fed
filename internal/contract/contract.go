// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/commitclock/schema"
)

// GitClient defines the git operations the commit source needs.
// This allows the core analysis logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns its output.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetCommitLog returns the raw history of the repository in the format
	// understood by agg.ParseCommitLog.
	GetCommitLog(ctx context.Context, repoPath string) ([]byte, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetActivityStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking runs and their bin tables.
type AnalysisStore interface {
	// BeginAnalysis creates a new run and returns its unique ID
	BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error)

	// RecordBinCells stores every cell of a bin table for a repository (or the combined scope)
	RecordBinCells(analysisID int64, repo string, table *schema.BinTable, intervalLabels []string) error

	// EndAnalysis updates the run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalRepos int, totalCommits int) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every stored run
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllBinCells returns every stored bin cell
	GetAllBinCells() ([]schema.BinCellRecord, error)

	// Close closes the underlying connection
	Close() error
}
