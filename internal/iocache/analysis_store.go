package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/huangsam/commitclock/core/bins"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable = "commitclock_runs"
	binCellsTable     = "commitclock_bin_cells"
)

// AnalysisStoreImpl records runs and the bin tables they produced.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore opens the analysis tables on the given backend, creating them if needed.
// The none backend yields a store that accepts and discards everything.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analysis store: %w", err)
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables applies every up migration of the backend. The migrations
// only use CREATE TABLE IF NOT EXISTS, so this is safe on a migrated database.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	source, err := backendMigrations(backend)
	if err != nil {
		return err
	}
	files, err := fs.Glob(source, "*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, name := range files {
		query, err := fs.ReadFile(source, name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(query)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}
	return nil
}

// BeginAnalysis creates a new run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	table := quoteTableName(analysisRunsTable, as.backend)
	columns := "(start_time, config_params)"
	values := bindVars(as.backend, 1, 2)
	start := formatTime(startTime, as.backend)

	var analysisID int64
	if as.backend == schema.PostgreSQLBackend {
		query := fmt.Sprintf(`INSERT INTO %s %s VALUES (%s) RETURNING analysis_id`, table, columns, values)
		err = as.db.QueryRow(query, start, string(configJSON)).Scan(&analysisID)
	} else {
		query := fmt.Sprintf(`INSERT INTO %s %s VALUES (%s)`, table, columns, values)
		var result sql.Result
		if result, err = as.db.Exec(query, start, string(configJSON)); err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// RecordBinCells stores every cell of a table, zero cells included, so the
// table can be rebuilt from the store.
func (as *AnalysisStoreImpl) RecordBinCells(analysisID int64, repo string, table *schema.BinTable, intervalLabels []string) error {
	if as.db == nil || table == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (analysis_id, repo, kind, slot, slot_label, interval_index, interval_label, commits) VALUES (%s)`,
		quoteTableName(binCellsTable, as.backend), bindVars(as.backend, 1, 8))

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare bin cell insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for slot := range table.Slots() {
		slotLabel := bins.SlotLabel(table.Kind, slot)
		for interval := range table.Intervals() {
			intervalLabel := ""
			if interval < len(intervalLabels) {
				intervalLabel = intervalLabels[interval]
			}
			if _, err := stmt.Exec(analysisID, repo, string(table.Kind), slot, slotLabel,
				interval, intervalLabel, table.Counts[slot][interval]); err != nil {
				return fmt.Errorf("failed to insert bin cell %s/%s/%d/%d: %w", repo, table.Kind, slot, interval, err)
			}
		}
	}
	return tx.Commit()
}

// EndAnalysis stores the end time, duration and totals of a run.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalRepos int, totalCommits int) error {
	if as.db == nil {
		return nil
	}

	table := quoteTableName(analysisRunsTable, as.backend)
	start := timeScanner{backend: as.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, table, bindVars(as.backend, 1, 1))
	if err := as.db.QueryRow(query, analysisID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	var durationMs int64
	if startTime != nil {
		durationMs = endTime.Sub(*startTime).Milliseconds()
	}

	var update string
	if as.backend == schema.PostgreSQLBackend {
		update = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_repos = $3, total_commits = $4 WHERE analysis_id = $5`, table)
	} else {
		update = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_repos = ?, total_commits = ? WHERE analysis_id = ?`, table)
	}
	if _, err := as.db.Exec(update, formatTime(endTime, as.backend), durationMs, totalRepos, totalCommits, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns run counts, run times and row counts per table.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runs := quoteTableName(analysisRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: as.backend}
		row := as.db.QueryRow(fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldest := timeScanner{backend: as.backend}
		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}

		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_commits), 0) FROM %s", runs))
		if err := row.Scan(&status.TotalCommits); err != nil {
			return status, fmt.Errorf("failed to get total commits: %w", err)
		}
	}

	for _, table := range []string{analysisRunsTable, binCellsTable} {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAnalysisRuns returns every stored run ordered by ID.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT analysis_id, start_time, end_time, run_duration_ms, total_repos, total_commits, config_params FROM %s ORDER BY analysis_id",
		quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		start := timeScanner{backend: as.backend}
		end := timeScanner{backend: as.backend}
		if err := rows.Scan(&record.AnalysisID, start.dest(), end.dest(), &record.RunDurationMs,
			&record.TotalRepos, &record.TotalCommits, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllBinCells returns every stored cell ordered by run, repository, kind, slot and interval.
func (as *AnalysisStoreImpl) GetAllBinCells() ([]schema.BinCellRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, repo, kind, slot, slot_label, interval_index, interval_label, commits
		FROM %s ORDER BY analysis_id, repo, kind, slot, interval_index`, quoteTableName(binCellsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bin cells: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.BinCellRecord
	for rows.Next() {
		var r schema.BinCellRecord
		if err := rows.Scan(&r.AnalysisID, &r.Repo, &r.Kind, &r.Slot, &r.SlotLabel, &r.IntervalIndex, &r.IntervalLabel, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan bin cell: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bin cells: %w", err)
	}
	return results, nil
}
