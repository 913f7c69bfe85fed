package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/huangsam/commitclock/core/agg"
	"github.com/huangsam/commitclock/core/tz"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// cancelCheckEvery is how many commits are reconciled between context checks.
const cancelCheckEvery = 1024

// RepoScan is the reconciled history of one repository.
type RepoScan struct {
	Repo        string
	Records     []schema.CommitRecord // every parsed commit, in git order
	Profiles    map[schema.ContributorID]schema.OffsetProfile
	Commits     []schema.CorrectedCommit // eligible commits only
	Diagnostics schema.RepoDiagnostics
	Complete    bool
	Duration    time.Duration
}

// ScanRepo loads the history of one repository and runs both passes over it:
// first the offset profiles, then reconciliation of every commit.
// A cancelled context stops the second pass and marks the scan incomplete.
func ScanRepo(ctx context.Context, cfg *contract.Config, client contract.GitClient, store contract.CacheStore, repo contract.RepoTarget) (*RepoScan, error) {
	start := time.Now()
	commitLog, fromCache, err := agg.LoadCommitLog(ctx, client, store, repo.Path)
	if err != nil {
		return nil, fmt.Errorf("repository %s: %w", repo.Name, err)
	}

	// --- Pass 1: offset profiles over the full history ---
	profiles := tz.BuildProfiles(commitLog.Records)

	scan := &RepoScan{
		Repo:     repo.Name,
		Records:  commitLog.Records,
		Profiles: profiles,
		Complete: true,
		Diagnostics: schema.RepoDiagnostics{
			Parsed:        len(commitLog.Records),
			Skipped:       commitLog.Skipped,
			Contributors:  len(profiles),
			WithCanonical: tz.CountCanonical(profiles),
			FromCache:     fromCache,
		},
	}

	// --- Pass 2: reconcile and filter ---
	reconciler := tz.NewReconciler(profiles, cfg.Policy, cfg.Intervals)
	d := &scan.Diagnostics
	for i, rec := range commitLog.Records {
		if i%cancelCheckEvery == 0 && ctx.Err() != nil {
			scan.Complete = false
			break
		}
		cc, reason := reconciler.Reconcile(rec)
		switch reason {
		case schema.NotDropped:
			d.Counted++
			scan.Commits = append(scan.Commits, cc)
		case schema.DropPolicy:
			d.DroppedPolicy++
		case schema.DropWindow:
			d.DroppedWindow++
		case schema.DropBeforeCanonical:
			d.DroppedEarly++
		}
	}

	scan.Duration = time.Since(start)
	contract.Log.WithFields(logrus.Fields{
		"repo":     repo.Name,
		"parsed":   d.Parsed,
		"counted":  d.Counted,
		"skipped":  d.Skipped,
		"cached":   d.FromCache,
		"complete": scan.Complete,
	}).Debug("repository scanned")
	return scan, nil
}

// scanSummary reports what happened to the repositories of a run.
type scanSummary struct {
	Failed  []string
	Skipped int // unparseable commits over all scanned repositories
}

// forEachRepo scans every configured repository with at most cfg.Workers in flight
// and hands each scan to fn. fn may run concurrently with itself.
// A repository that cannot be read is logged and skipped, unless cfg.FailFast is set.
// Errors returned by fn always abort the run.
func forEachRepo(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager, fn func(*RepoScan) error) (scanSummary, error) {
	store := activityStore(mgr)

	var (
		mu      sync.Mutex
		summary scanSummary
	)
	fail := func(name string) {
		mu.Lock()
		summary.Failed = append(summary.Failed, name)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for i, repo := range cfg.Repos {
		if gctx.Err() != nil {
			// Stop scheduling; everything not started is reported as failed.
			for _, rest := range cfg.Repos[i:] {
				fail(rest.Name)
			}
			break
		}
		g.Go(func() error {
			scan, err := ScanRepo(gctx, cfg, client, store, repo)
			if err != nil {
				if cfg.FailFast {
					return err
				}
				contract.Log.WithError(err).WithField("repo", repo.Name).Warn("skipping repository")
				fail(repo.Name)
				return nil
			}
			mu.Lock()
			summary.Skipped += scan.Diagnostics.Skipped
			mu.Unlock()
			return fn(scan)
		})
	}

	err := g.Wait()
	sort.Strings(summary.Failed)
	if err == nil && ctx.Err() != nil {
		contract.Log.WithError(ctx.Err()).Warn("run interrupted, results are partial")
	}
	return summary, err
}

// activityStore returns the commit-log cache, or nil when caching is off.
func activityStore(mgr contract.CacheManager) contract.CacheStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetActivityStore()
}

// analysisStore returns the run tracker, or nil when tracking is off.
func analysisStore(mgr contract.CacheManager) contract.AnalysisStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetAnalysisStore()
}
