package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/huangsam/commitclock/core/algo"
	"github.com/huangsam/commitclock/core/bins"
	"github.com/huangsam/commitclock/core/tz"
	"github.com/huangsam/commitclock/internal/contract"
	"github.com/huangsam/commitclock/schema"
)

// TimezoneDistribution counts eligible commits per recorded offset in every
// repository and how many repositories have each offset as their most common one.
func TimezoneDistribution(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*schema.TimezoneResult, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, "timezones")
	}

	var (
		mu    sync.Mutex
		repos []schema.RepoTimezones
	)
	_, err := forEachRepo(ctx, cfg, client, mgr, func(scan *RepoScan) error {
		counts := make(map[int]int)
		for _, cc := range scan.Commits {
			counts[cc.RawOffset]++
		}
		rt := schema.RepoTimezones{Repo: scan.Repo, Timezones: rankOffsets(counts)}
		if len(rt.Timezones) > 0 {
			rt.MostCommon = rt.Timezones[0].Offset
		}
		mu.Lock()
		repos = append(repos, rt)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Repo < repos[j].Repo })
	mostCommon := make(map[int]int)
	for _, rt := range repos {
		if rt.MostCommon != "" {
			mostCommon[contract.ParseOffset(rt.MostCommon)]++
		}
	}
	return &schema.TimezoneResult{Repos: repos, MostCommon: rankOffsets(mostCommon)}, nil
}

// rankOffsets orders offset counts by count, then by offset.
func rankOffsets(counts map[int]int) []schema.TimezoneCount {
	ranked := algo.RankCounts(counts, 0)
	out := make([]schema.TimezoneCount, len(ranked))
	for i, kc := range ranked {
		out[i] = schema.TimezoneCount{Offset: contract.FormatOffset(kc.Key), Commits: kc.Count}
	}
	return out
}

// UTCShare reports which share of the commits authored in cfg.Year were recorded at UTC+0.
// Every parsed commit counts here, whatever the inclusion policy says.
func UTCShare(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*schema.UTCShareResult, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, "utc")
	}

	result := &schema.UTCShareResult{Year: cfg.Year}
	var mu sync.Mutex
	_, err := forEachRepo(ctx, cfg, client, mgr, func(scan *RepoScan) error {
		utc, other := 0, 0
		for _, rec := range scan.Records {
			if tz.ToLocal(rec.Instant, rec.RawOffset).Year() != cfg.Year {
				continue
			}
			if rec.RawOffset == 0 {
				utc++
			} else {
				other++
			}
		}
		mu.Lock()
		result.UTCCommits += utc
		result.Other += other
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Percentage = percent(result.UTCCommits, result.UTCCommits+result.Other)
	return result, nil
}

// YearlyVariation describes, per year of the window, how eligible commits spread over offsets.
func YearlyVariation(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]schema.YearVariation, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, "variation")
	}

	perYear := make(map[int]map[int]int) // year -> offset -> commits
	var mu sync.Mutex
	_, err := forEachRepo(ctx, cfg, client, mgr, func(scan *RepoScan) error {
		mu.Lock()
		defer mu.Unlock()
		for _, cc := range scan.Commits {
			if perYear[cc.Year] == nil {
				perYear[cc.Year] = make(map[int]int)
			}
			perYear[cc.Year][cc.RawOffset]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []schema.YearVariation
	for year := cfg.Intervals.StartYear; year <= cfg.Intervals.EndYear; year++ {
		out = append(out, OffsetVariation(year, perYear[year]))
	}
	return out, nil
}

// OffsetVariation computes spread statistics of one year's commits per offset:
// population standard deviation, coefficient of variation (0 when the mean is 0),
// Shannon entropy in nats and the UTC+0 share.
func OffsetVariation(year int, counts map[int]int) schema.YearVariation {
	v := schema.YearVariation{Year: year, Timezones: len(counts), Commits: algo.Total(counts)}
	if v.Commits == 0 {
		return v
	}
	v.StdDev = algo.PopulationStdDev(counts)
	v.CV = algo.CoefficientOfVariation(counts)
	v.Entropy = algo.ShannonEntropy(counts)
	v.UTCPercent = percent(counts[0], v.Commits)
	return v
}

// Consistency checks, per repository, that every window of cfg.WindowMonths months
// starting at cfg.WindowStart holds at least round_half_even(total/windows/divisor)
// eligible commits. A repository without eligible commits never qualifies.
func Consistency(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]schema.ConsistencyResult, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, "consistency")
	}

	// Reconcile over exactly the calendar span of the windows.
	windowCfg := cfg.Clone()
	windowCfg.Intervals = schema.IntervalConfig{
		StartYear:     cfg.WindowStart,
		EndYear:       cfg.WindowStart + (cfg.Windows*cfg.WindowMonths-1)/12,
		IntervalYears: 1,
	}
	labels := consistencyLabels(cfg.WindowStart, cfg.Windows, cfg.WindowMonths)

	var (
		mu      sync.Mutex
		results []schema.ConsistencyResult
	)
	_, err := forEachRepo(ctx, windowCfg, client, mgr, func(scan *RepoScan) error {
		counts := make([]int, cfg.Windows)
		for _, cc := range scan.Commits {
			month := (cc.Year-cfg.WindowStart)*12 + int(cc.Local.Month()) - 1
			if w := month / cfg.WindowMonths; month >= 0 && w < cfg.Windows {
				counts[w]++
			}
		}
		res := CheckConsistency(counts, cfg.ThresholdDivisor)
		res.Repo = scan.Repo
		for i := range res.Windows {
			res.Windows[i].Label = labels[i]
		}
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Repo < results[j].Repo })
	return results, nil
}

// CheckConsistency applies the threshold rule to per-window commit counts.
func CheckConsistency(counts []int, divisor int) schema.ConsistencyResult {
	res := schema.ConsistencyResult{Windows: make([]schema.ConsistencyWindow, len(counts))}
	for i, c := range counts {
		res.Total += c
		res.Windows[i].Commits = c
	}
	if res.Total == 0 || len(counts) == 0 || divisor <= 0 {
		return res
	}
	res.Threshold = int(math.RoundToEven(float64(res.Total) / float64(len(counts)) / float64(divisor)))
	for i, c := range counts {
		if c < res.Threshold {
			res.FailedAt = i + 1
			return res
		}
	}
	res.Qualifies = true
	return res
}

// consistencyLabels names windows as "YYYY-MM/YYYY-MM".
func consistencyLabels(startYear, windows, months int) []string {
	labels := make([]string, windows)
	for i := range windows {
		first := i * months
		last := first + months - 1
		labels[i] = fmt.Sprintf("%04d-%02d/%04d-%02d",
			startYear+first/12, first%12+1, startYear+last/12, last%12+1)
	}
	return labels
}

// ContributorsPerYear counts distinct eligible contributors per year in each
// repository and sums the counts over repositories.
func ContributorsPerYear(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]schema.YearCount, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, "contributors")
	}

	totals := make(map[int]int)
	var mu sync.Mutex
	_, err := forEachRepo(ctx, cfg, client, mgr, func(scan *RepoScan) error {
		seen := make(map[int]map[schema.ContributorID]struct{})
		for _, cc := range scan.Commits {
			if seen[cc.Year] == nil {
				seen[cc.Year] = make(map[schema.ContributorID]struct{})
			}
			seen[cc.Year][cc.Contributor] = struct{}{}
		}
		mu.Lock()
		for year, people := range seen {
			totals[year] += len(people)
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []schema.YearCount
	for year := cfg.Intervals.StartYear; year <= cfg.Intervals.EndYear; year++ {
		out = append(out, schema.YearCount{Year: year, Count: totals[year]})
	}
	return out, nil
}

// LinesPerCommit reports inserted lines per eligible commit for every year of the window.
func LinesPerCommit(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]schema.LinesPerYear, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, "lines")
	}

	commits := make(map[int]int)
	lines := make(map[int]int)
	var mu sync.Mutex
	_, err := forEachRepo(ctx, cfg, client, mgr, func(scan *RepoScan) error {
		mu.Lock()
		defer mu.Unlock()
		for _, cc := range scan.Commits {
			commits[cc.Year]++
			lines[cc.Year] += cc.LinesAdded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []schema.LinesPerYear
	for year := cfg.Intervals.StartYear; year <= cfg.Intervals.EndYear; year++ {
		row := schema.LinesPerYear{Year: year, Commits: commits[year], LinesAdded: lines[year]}
		if row.Commits > 0 {
			row.LinesPerCommit = float64(row.LinesAdded) / float64(row.Commits)
		}
		out = append(out, row)
	}
	return out, nil
}

// Ratios bins every repository by day and hour and reports, per interval, the
// weekday/weekend and in-shift/out-of-shift activity ratios.
func Ratios(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) ([]schema.IntervalRatio, error) {
	both := cfg.Clone()
	both.Binning = schema.BothBinning
	result, err := RunBins(ctx, both, client, mgr)
	if err != nil {
		return nil, err
	}
	shift := bins.HourRange{Start: cfg.ShiftStart, End: cfg.ShiftEnd}
	return RatiosFromTables(result.CombinedTable(schema.DaySlot), result.CombinedTable(schema.HourSlot), shift, cfg.Intervals), nil
}

// RatiosFromTables computes the ratios from a day table and an hour table.
// The weekday ratio compares the Monday-Friday daily average to the weekend daily
// average; the shift ratio compares the hourly average inside the shift to the one
// outside it. A ratio is 0 when its denominator is 0.
func RatiosFromTables(day, hour *schema.BinTable, shift bins.HourRange, cfg schema.IntervalConfig) []schema.IntervalRatio {
	labels := bins.IntervalLabels(cfg)
	out := make([]schema.IntervalRatio, len(labels))
	for i, label := range labels {
		out[i].Interval = label

		weekday, weekend := 0, 0
		for s := range 7 {
			if s < 5 {
				weekday += day.Get(s, i)
			} else {
				weekend += day.Get(s, i)
			}
		}
		out[i].WeekdayRatio = ratio(float64(weekday)/5, float64(weekend)/2)

		if outside := 24 - shift.Len(); outside > 0 {
			in := bins.SumRange(hour, shift, i)
			out[i].ShiftRatio = ratio(float64(in)/float64(shift.Len()), float64(hour.ColumnTotal(i)-in)/float64(outside))
		}
	}
	return out
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
