// Package core has core logic for reconciling, binning and summarizing commit activity.
package core

import (
	"context"
	"time"

	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/internal/outwriter"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteBins runs the binning across all repositories and writes the tables.
// It serves as the main entry point for the 'bins', 'days' and 'hours' commands.
func ExecuteBins(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := RunBins(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteBins(result, cfg, time.Since(start))
}

// ExecuteTimezones writes the per-repository timezone distribution.
func ExecuteTimezones(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := TimezoneDistribution(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteTimezones(result, cfg, time.Since(start))
}

// ExecuteUTCShare writes the UTC+0 share of one year.
func ExecuteUTCShare(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := UTCShare(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteUTCShare(result, cfg, time.Since(start))
}

// ExecuteVariation writes the yearly timezone variation statistics.
func ExecuteVariation(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := YearlyVariation(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteVariation(result, cfg, time.Since(start))
}

// ExecuteConsistency writes which repositories stay active in every window.
func ExecuteConsistency(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := Consistency(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteConsistency(result, cfg, time.Since(start))
}

// ExecuteContributors writes distinct contributors per year.
func ExecuteContributors(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := ContributorsPerYear(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteContributors(result, cfg, time.Since(start))
}

// ExecuteLines writes inserted lines per commit per year.
func ExecuteLines(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := LinesPerCommit(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteLines(result, cfg, time.Since(start))
}

// ExecuteRatios writes the weekday and shift ratios per interval.
func ExecuteRatios(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	result, err := Ratios(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRatios(result, cfg, time.Since(start))
}
