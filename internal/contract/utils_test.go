package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestReadRepoList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.txt")
	require.NoError(t, os.WriteFile(path, []byte("  golang/go  \n\n\tkubernetes/kubernetes\n"), 0o644))

	repos, err := ReadRepoList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang/go", "kubernetes/kubernetes"}, repos)

	_, err = ReadRepoList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRepoFileName(t *testing.T) {
	assert.Equal(t, "golang-go", RepoFileName("golang/go"))
	assert.Equal(t, "golang-go", RepoFileName("/golang/go/"))
	assert.Equal(t, "single", RepoFileName("single"))
	assert.Equal(t, "repo", RepoFileName(""))
	assert.Equal(t, "repo", RepoFileName("."))
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", TruncateLabel("short", 10))
	assert.Equal(t, "...kubernetes", TruncateLabel("kubernetes/kubernetes", 13))
	assert.Equal(t, "abcdef", TruncateLabel("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestGetDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	cachePath := GetCacheDBFilePath()
	assert.Contains(t, cachePath, ".commitclock_cache.db")
	assert.True(t, strings.HasPrefix(cachePath, homeDir))

	analysisPath := GetAnalysisDBFilePath()
	assert.Contains(t, analysisPath, ".commitclock_analysis.db")
	assert.NotEqual(t, cachePath, analysisPath)
}

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() { _ = SetLogLevel("info") })
	for _, level := range []string{"debug", "info", "", "warn", "warning", "error", "DEBUG"} {
		assert.NoError(t, SetLogLevel(level), level)
	}
	assert.Error(t, SetLogLevel("trace-everything"))
}
