package iocache

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/commitclock/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals makes InitStores and CloseStores usable again in the next test.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	t.Cleanup(func() {
		CloseStores()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager.Lock()
		Manager.activity, Manager.analysis = nil, nil
		Manager.Unlock()
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite file", func(t *testing.T) {
		resetGlobals(t)
		dbPath := filepath.Join(t.TempDir(), "cache.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, dbPath, "", ""))
		assert.NotNil(t, Manager.GetActivityStore())
		assert.Nil(t, Manager.GetAnalysisStore(), "Unconfigured analysis store should be nil")

		_, err := os.Stat(dbPath)
		assert.NoError(t, err, "Database file should be created")
	})

	t.Run("idempotent", func(t *testing.T) {
		resetGlobals(t)
		for range 3 {
			assert.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", schema.SQLiteBackend, ":memory:"))
		}
		CloseStores()
		CloseStores()
	})

	t.Run("none backends leave stores unset", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		assert.Nil(t, Manager.GetActivityStore())
		assert.Nil(t, Manager.GetAnalysisStore())
	})

	t.Run("bad connection string", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.MySQLBackend, "invalid://connection", "", "")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetActivityStore())
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		tableName string
		wantErr   bool
	}{
		{"test_table", false},
		{"test_table_123", false},
		{"_test_table", false},
		{"TestTable_123", false},
		{strings.Repeat("a", 1000), false},
		{"", true},
		{"123_table", true},
		{"test-table", true},
		{"test table", true},
		{"test'; DROP TABLE users; --", true},
		{"test.table", true},
		{"test_表", true},
	}
	for _, tt := range tests {
		err := validateTableName(tt.tableName)
		if tt.wantErr {
			assert.Error(t, err, "validateTableName should error for %q", tt.tableName)
		} else {
			assert.NoError(t, err, "validateTableName should not error for %q", tt.tableName)
		}
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.NoneBackend))
}

func TestBindVars(t *testing.T) {
	assert.Equal(t, "?, ?, ?", bindVars(schema.SQLiteBackend, 1, 3))
	assert.Equal(t, "?", bindVars(schema.MySQLBackend, 1, 1))
	assert.Equal(t, "$2, $3", bindVars(schema.PostgreSQLBackend, 2, 2))
}

func TestDriverFor(t *testing.T) {
	driver, dsn, err := driverFor(schema.SQLiteBackend, "", "/tmp/default.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, "/tmp/default.db", dsn)

	driver, dsn, err = driverFor(schema.MySQLBackend, "user:pass@tcp(localhost:3306)/clock", "")
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "parseTime=true")

	driver, _, err = driverFor(schema.PostgreSQLBackend, "host=localhost", "")
	require.NoError(t, err)
	assert.Equal(t, "pgx", driver)

	_, _, err = driverFor("oracle", "", "")
	assert.Error(t, err)
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery("c", schema.SQLiteBackend), "cache_value BLOB")
	assert.Contains(t, getCreateTableQuery("c", schema.MySQLBackend), "cache_key VARCHAR(255)")
	assert.Contains(t, getCreateTableQuery("c", schema.PostgreSQLBackend), "cache_value BYTEA")
}

func TestGetUpsertQuery(t *testing.T) {
	sqlite := &CacheStoreImpl{tableName: "c", backend: schema.SQLiteBackend}
	assert.Contains(t, sqlite.getUpsertQuery(), "INSERT OR REPLACE")

	mysql := &CacheStoreImpl{tableName: "c", backend: schema.MySQLBackend}
	assert.Contains(t, mysql.getUpsertQuery(), "ON DUPLICATE KEY UPDATE")

	pg := &CacheStoreImpl{tableName: "c", backend: schema.PostgreSQLBackend}
	assert.Contains(t, pg.getUpsertQuery(), "ON CONFLICT (cache_key)")
	assert.Contains(t, pg.getUpsertQuery(), "$4")
}

func TestSQLiteCacheStore(t *testing.T) {
	store, err := NewCacheStore("test_table", schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("get missing key", func(t *testing.T) {
		_, _, _, err := store.Get("missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set("k", []byte("v1"), 1, 1234567890))
		value, version, ts, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v1", string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1234567890), ts)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		require.NoError(t, store.Set("k", []byte("v2"), 2, 99))
		value, version, ts, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(99), ts)
	})
}

func TestNoneCacheStore(t *testing.T) {
	store, err := NewCacheStore("test_table", schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.Equal(t, sql.ErrNoRows, err)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("invalid-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
	_, err = NewCacheStore("", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
	_, err = NewCacheStore("test_table", "unsupported", "")
	assert.Error(t, err)
}

func TestCacheStoreGetStatus(t *testing.T) {
	store, err := NewCacheStore("status_table", schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalEntries)
	assert.True(t, status.LastEntryTime.IsZero())

	for i, ts := range []int64{1000, 2000, 1500} {
		require.NoError(t, store.Set(string(rune('a'+i)), []byte("v"), 1, ts))
	}
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 3, status.TotalEntries)
	assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes the file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "clear.db")
		store, err := NewCacheStore(commitLogTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "none.db"), ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearAnalysis(schema.NoneBackend, "", ""))
	})

	t.Run("errors", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
		assert.Error(t, ClearAnalysis("unsupported", "", ""))
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			store := Manager.GetActivityStore()
			if assert.NotNil(t, store) {
				assert.NoError(t, store.Set("concurrent_key", []byte("value"), 1, int64(1000+i)))
			}
		})
	}
	wg.Wait()

	_, _, ts, err := Manager.GetActivityStore().Get("concurrent_key")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, int64(1000))
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    12345,
		LastEntryTime:   time.Now(),
		OldestEntryTime: time.Now().Add(-48 * time.Hour),
		TableSizeBytes:  2 * 1000 * 1000,
	})
	out := buf.String()
	assert.Contains(t, out, "Total Entries: 12,345")
	assert.Contains(t, out, "Table Size: 2.0 MB")
	assert.Contains(t, out, "2 days ago")
}
