package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/commitclock/core/agg"
	"github.com/huangsam/commitclock/core/bins"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
	"github.com/sirupsen/logrus"
)

// RunBins bins every configured repository and merges the per-repository tables.
// Repositories that cannot be read are skipped (see forEachRepo); a table shape
// mismatch aborts the run.
func RunBins(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*schema.BinResult, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, "bins")
	}

	start := time.Now()
	metrics := newRunMetrics()
	reducer := agg.NewReducer(cfg.Binning.Kinds(), cfg.Intervals.NumPeriods(), cfg.ExcludePartial)
	tracker := beginTracking(mgr, cfg, start)

	summary, err := forEachRepo(ctx, cfg, client, mgr, func(scan *RepoScan) error {
		rb := binScan(cfg, scan)
		metrics.observeScan(scan, !rb.Complete && cfg.ExcludePartial)
		return reducer.Add(rb)
	})
	if err != nil {
		return nil, err
	}
	metrics.observeFailed(len(summary.Failed))

	result := &schema.BinResult{
		Intervals: cfg.Intervals,
		Policy:    cfg.Policy,
		Combined:  reducer.Combined(),
		Repos:     reducer.Repos(),
		Failed:    summary.Failed,
		Excluded:  reducer.Excluded(),
		Skipped:   summary.Skipped,
	}

	tracker.finish(result)
	metrics.runSeconds.Set(time.Since(start).Seconds())
	if cfg.MetricsFile != "" {
		if err := metrics.writeTextfile(cfg.MetricsFile); err != nil {
			contract.LogWarn("Failed to write metrics file", err)
		}
	}
	return result, nil
}

// ProcessRepo bins a single repository.
func ProcessRepo(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager, repo contract.RepoTarget) (schema.RepoBins, error) {
	scan, err := ScanRepo(ctx, cfg, client, activityStore(mgr), repo)
	if err != nil {
		return schema.RepoBins{}, err
	}
	return binScan(cfg, scan), nil
}

// binScan turns the eligible commits of a scan into bin tables.
func binScan(cfg *contract.Config, scan *RepoScan) schema.RepoBins {
	binner := bins.NewBinner(cfg.Binning, cfg.Intervals.NumPeriods())
	for _, cc := range scan.Commits {
		binner.Observe(cc)
	}
	return schema.RepoBins{
		Repo:        scan.Repo,
		Tables:      binner.Tables(),
		Complete:    scan.Complete,
		Diagnostics: scan.Diagnostics,
	}
}

// logRunHeader logs what a run is about to do.
func logRunHeader(cfg *contract.Config, name string) {
	contract.Log.WithFields(logrus.Fields{
		"repos":    len(cfg.Repos),
		"years":    fmt.Sprintf("%d-%d", cfg.Intervals.StartYear, cfg.Intervals.EndYear),
		"interval": cfg.Intervals.IntervalYears,
		"policy":   cfg.Policy,
		"workers":  cfg.Workers,
	}).Infof("commitclock %s", name)
}

// runTracker records one run in the analysis store. A nil tracker is a no-op.
type runTracker struct {
	store contract.AnalysisStore
	id    int64
}

// beginTracking opens a run in the analysis store, if one is configured.
func beginTracking(mgr contract.CacheManager, cfg *contract.Config, start time.Time) *runTracker {
	store := analysisStore(mgr)
	if store == nil {
		return nil
	}
	configParams := map[string]any{
		"policy":          string(cfg.Policy),
		"binning":         string(cfg.Binning),
		"start_year":      cfg.Intervals.StartYear,
		"end_year":        cfg.Intervals.EndYear,
		"interval_years":  cfg.Intervals.IntervalYears,
		"repos":           len(cfg.Repos),
		"workers":         cfg.Workers,
		"exclude_partial": cfg.ExcludePartial,
	}
	id, err := store.BeginAnalysis(start, configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return nil
	}
	return &runTracker{store: store, id: id}
}

// finish stores every table of the result and closes the run.
func (t *runTracker) finish(result *schema.BinResult) {
	if t == nil || t.id <= 0 {
		return
	}
	labels := bins.IntervalLabels(result.Intervals)

	totalCommits := 0
	for _, rb := range result.Repos {
		totalCommits += rb.Diagnostics.Counted
		for _, table := range rb.Tables {
			if err := t.store.RecordBinCells(t.id, rb.Repo, table, labels); err != nil {
				logTrackingError("RecordBinCells", rb.Repo, err)
			}
		}
	}
	for _, table := range result.Combined {
		if err := t.store.RecordBinCells(t.id, schema.CombinedScope, table, labels); err != nil {
			logTrackingError("RecordBinCells", schema.CombinedScope, err)
		}
	}

	if err := t.store.EndAnalysis(t.id, time.Now(), len(result.Repos), totalCommits); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// logTrackingError logs database tracking errors without disrupting analysis.
func logTrackingError(operation, repo string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, repo), err)
}
