package tz

import (
	"testing"
	"time"

	"github.com/huangsam/commitclock/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var window = schema.IntervalConfig{StartYear: 2015, EndYear: 2024, IntervalYears: 1}

func commit(who string, instant time.Time, offset int) schema.CommitRecord {
	return schema.CommitRecord{Contributor: schema.ContributorID(who), Instant: instant, RawOffset: offset}
}

func utc(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestBuildProfiles_EarliestNonZero(t *testing.T) {
	t1 := utc(2020, 1, 1, 10, 0)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)
	ordered := []schema.CommitRecord{commit("ada", t1, 0), commit("ada", t2, 120), commit("ada", t3, -300)}

	// Any processing order yields the same canonical offset.
	permutations := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {2, 0, 1}}
	for _, perm := range permutations {
		records := []schema.CommitRecord{ordered[perm[0]], ordered[perm[1]], ordered[perm[2]]}
		p := BuildProfiles(records)["ada"]
		assert.True(t, p.HasCanonical)
		assert.Equal(t, 120, p.CanonicalOffset, "order %v", perm)
		assert.Equal(t, t2, p.FirstCanonical)
	}
}

func TestBuildProfiles_NoCanonical(t *testing.T) {
	profiles := BuildProfiles([]schema.CommitRecord{
		commit("utc-only", utc(2020, 1, 1, 0, 0), 0),
		commit("single", utc(2020, 1, 2, 0, 0), 0),
	})
	assert.False(t, profiles["utc-only"].HasCanonical)
	assert.False(t, profiles["single"].HasCanonical)
	assert.Equal(t, 0, CountCanonical(profiles))
	assert.Len(t, profiles, 2)
}

func TestBuildProfiles_OnlyLatestNonZero(t *testing.T) {
	profiles := BuildProfiles([]schema.CommitRecord{
		commit("ada", utc(2020, 1, 1, 0, 0), 0),
		commit("ada", utc(2020, 1, 2, 0, 0), 0),
		commit("ada", utc(2020, 1, 3, 0, 0), 540),
	})
	assert.Equal(t, 540, profiles["ada"].CanonicalOffset)
}

func TestBuildProfiles_TieKeepsFirstSeen(t *testing.T) {
	at := utc(2020, 1, 1, 0, 0)
	profiles := BuildProfiles([]schema.CommitRecord{commit("ada", at, 60), commit("ada", at, -60)})
	assert.Equal(t, 60, profiles["ada"].CanonicalOffset)

	profiles = BuildProfiles([]schema.CommitRecord{commit("ada", at, -60), commit("ada", at, 60)})
	assert.Equal(t, -60, profiles["ada"].CanonicalOffset)
}

func TestReconcile_RetroactiveCorrection(t *testing.T) {
	t1 := utc(2020, 1, 6, 8, 0) // Monday
	records := []schema.CommitRecord{
		commit("ada", t1, 0),
		commit("ada", t1.Add(time.Hour), 120),
		commit("ada", t1.Add(2*time.Hour), -300),
	}
	r := NewReconciler(BuildProfiles(records), schema.CountAll, window)

	for i, rec := range records {
		cc, reason := r.Reconcile(rec)
		require.Equal(t, schema.NotDropped, reason)
		assert.Equal(t, 120, cc.Offset)
		assert.Equal(t, 10+i, cc.Hour)
		assert.Equal(t, 0, cc.Day)
		assert.Equal(t, rec.RawOffset, cc.RawOffset)
	}
}

func TestReconcile_RequireCanonical(t *testing.T) {
	records := []schema.CommitRecord{
		commit("utc", utc(2020, 1, 6, 8, 0), 0),
		commit("utc", utc(2020, 1, 7, 8, 0), 0),
	}
	profiles := BuildProfiles(records)

	strict := NewReconciler(profiles, schema.RequireCanonical, window)
	lenient := NewReconciler(profiles, schema.CountAll, window)
	for _, rec := range records {
		_, reason := strict.Reconcile(rec)
		assert.Equal(t, schema.DropPolicy, reason)

		cc, reason := lenient.Reconcile(rec)
		assert.Equal(t, schema.NotDropped, reason)
		assert.Equal(t, 0, cc.Offset)
		assert.Equal(t, 8, cc.Hour)
	}
}

func TestReconcile_PoliciesAgreeWhenCanonicalExists(t *testing.T) {
	base := utc(2021, 3, 1, 12, 0)
	records := []schema.CommitRecord{
		commit("ada", base, 0),
		commit("ada", base.Add(time.Hour), 60),
		commit("ada", base.Add(2*time.Hour), 0),
	}
	profiles := BuildProfiles(records)
	for _, policy := range []schema.InclusionPolicy{schema.CountAll, schema.RequireCanonical} {
		r := NewReconciler(profiles, policy, window)
		counted := 0
		for _, rec := range records {
			cc, reason := r.Reconcile(rec)
			if reason == schema.NotDropped {
				counted++
				assert.Equal(t, 60, cc.Offset)
			}
		}
		assert.Equal(t, 3, counted, string(policy))
	}
}

func TestReconcile_FromFirstCanonical(t *testing.T) {
	base := utc(2021, 3, 1, 12, 0)
	records := []schema.CommitRecord{
		commit("ada", base, 0),
		commit("ada", base.Add(time.Hour), 60),
		commit("ada", base.Add(time.Hour), 0), // same instant as the first non-zero commit
		commit("ada", base.Add(2*time.Hour), 0),
		commit("utc", base, 0),
	}
	r := NewReconciler(BuildProfiles(records), schema.FromFirstCanonical, window)

	reasons := make([]schema.DropReason, len(records))
	for i, rec := range records {
		_, reasons[i] = r.Reconcile(rec)
	}
	assert.Equal(t, []schema.DropReason{
		schema.DropBeforeCanonical,
		schema.NotDropped,
		schema.NotDropped,
		schema.NotDropped,
		schema.DropPolicy,
	}, reasons)
}

func TestReconcile_WindowUsesLocalYear(t *testing.T) {
	records := []schema.CommitRecord{
		commit("ada", utc(2014, 12, 31, 23, 30), 60), // 2015-01-01 00:30 local
		commit("ada", utc(2024, 12, 31, 23, 30), 60), // 2025-01-01 00:30 local
		commit("ada", utc(2010, 6, 1, 12, 0), 60),
		commit("ada", utc(2031, 6, 1, 12, 0), 60),
	}
	r := NewReconciler(BuildProfiles(records), schema.CountAll, window)

	cc, reason := r.Reconcile(records[0])
	require.Equal(t, schema.NotDropped, reason)
	assert.Equal(t, 2015, cc.Year)
	assert.Equal(t, 0, cc.Interval)
	assert.Equal(t, 0, cc.Hour)
	assert.Equal(t, 3, cc.Day) // Thursday

	for _, rec := range records[1:] {
		_, reason := r.Reconcile(rec)
		assert.Equal(t, schema.DropWindow, reason)
	}
}

func TestReconcile_MultiYearInterval(t *testing.T) {
	cfg := schema.IntervalConfig{StartYear: 2010, EndYear: 2019, IntervalYears: 5}
	rec := commit("ada", utc(2016, 7, 4, 12, 0), 0)
	r := NewReconciler(BuildProfiles([]schema.CommitRecord{rec}), schema.CountAll, cfg)

	cc, reason := r.Reconcile(rec)
	require.Equal(t, schema.NotDropped, reason)
	assert.Equal(t, 1, cc.Interval)
}

func TestDayIndex(t *testing.T) {
	assert.Equal(t, 0, DayIndex(time.Monday))
	assert.Equal(t, 4, DayIndex(time.Friday))
	assert.Equal(t, 6, DayIndex(time.Sunday))
}

func TestToLocal(t *testing.T) {
	local := ToLocal(utc(2020, 1, 1, 2, 0), -300)
	assert.Equal(t, 2019, local.Year())
	assert.Equal(t, 21, local.Hour())
	assert.True(t, local.Equal(utc(2020, 1, 1, 2, 0)))
}
