package iocache

import (
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
)

// migrationsTable is where golang-migrate keeps the applied version.
const migrationsTable = "schema_migrations"

// commitLogTable is the name of the table for commit history caching.
const commitLogTable = "commit_log_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	return contract.GetAnalysisDBFilePath()
}

// enabled reports whether a backend should get a store at all.
func enabled(backend schema.DatabaseBackend) bool {
	return backend != "" && backend != schema.NoneBackend
}

// InitStores initializes the global manager. An empty or none backend leaves
// the corresponding store unset, which turns caching or tracking off.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, analysisBackend schema.DatabaseBackend, analysisConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var (
			activity contract.CacheStore
			analysis contract.AnalysisStore
			err      error
		)
		if enabled(cacheBackend) {
			activity, err = NewCacheStore(commitLogTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize commit log caching: %w", err)
				return
			}
		}
		if enabled(analysisBackend) {
			analysis, err = NewAnalysisStore(analysisBackend, analysisConnStr)
			if err != nil {
				if activity != nil {
					_ = activity.Close()
				}
				initErr = fmt.Errorf("failed to initialize analysis store: %w", err)
				return
			}
		}

		Manager.Lock()
		Manager.activity = activity
		Manager.analysis = analysis
		Manager.Unlock()
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.activity != nil {
			_ = Manager.activity.Close()
		}
		if Manager.analysis != nil {
			_ = Manager.analysis.Close()
		}
	})
}

// ClearCache removes every cached commit history.
// For SQLite it deletes the database file; for MySQL and PostgreSQL it drops the table.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, commitLogTable)
}

// ClearAnalysis removes every stored run and bin cell.
// For SQLite it deletes the database file; for MySQL and PostgreSQL it drops the tables.
func ClearAnalysis(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearTables(backend, dbFilePath, connStr, binCellsTable, analysisRunsTable, migrationsTable)
}

// clearTables drops tables, or the whole file for SQLite. A missing file is not an error.
func clearTables(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.NoneBackend:
		return nil
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDatabase(backend, connStr, "")
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		for _, table := range tables {
			if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}
