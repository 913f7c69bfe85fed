package iocache

import (
	"bytes"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/commitclock/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAnalysis_NoneBackend(t *testing.T) {
	err := MigrateAnalysis(io.Discard, schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestMigrateAnalysis_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	var out bytes.Buffer
	require.NoError(t, MigrateAnalysis(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 2")

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
	assert.True(t, tableExists(t, dbPath, analysisRunsTable))
	assert.True(t, tableExists(t, dbPath, binCellsTable))

	out.Reset()
	require.NoError(t, MigrateAnalysis(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	// Step back to the runs table alone
	require.NoError(t, MigrateAnalysis(io.Discard, schema.SQLiteBackend, dbPath, 1))
	assert.True(t, tableExists(t, dbPath, analysisRunsTable))
	assert.False(t, tableExists(t, dbPath, binCellsTable))

	require.NoError(t, MigrateAnalysis(io.Discard, schema.SQLiteBackend, dbPath, 0))
	assert.False(t, tableExists(t, dbPath, analysisRunsTable))

	require.NoError(t, MigrateAnalysis(io.Discard, schema.SQLiteBackend, dbPath, 2))
	assert.True(t, tableExists(t, dbPath, binCellsTable))
}

func TestMigrateAnalysis_AfterStoreCreatedTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "existing.db")
	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.NoError(t, MigrateAnalysis(io.Discard, schema.SQLiteBackend, dbPath, -1))
}

func TestBackendMigrations(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		source, err := backendMigrations(backend)
		require.NoError(t, err)
		for _, name := range []string{
			"000001_create_runs.up.sql", "000001_create_runs.down.sql",
			"000002_create_bin_cells.up.sql", "000002_create_bin_cells.down.sql",
		} {
			_, err := source.Open(name)
			assert.NoError(t, err, "%s should ship %s", backend, name)
		}
	}
}
