// Package tz reconciles per-contributor UTC offsets and shifts commits into local time.
package tz

import (
	"time"

	"github.com/huangsam/commitclock/schema"
)

// BuildProfiles derives the canonical offset of every contributor in one repository.
// The canonical offset is the raw offset of the contributor's earliest commit whose
// offset is non-zero. When two such commits share an instant the one seen first wins,
// so the result only depends on the input order for exact ties.
func BuildProfiles(records []schema.CommitRecord) map[schema.ContributorID]schema.OffsetProfile {
	profiles := make(map[schema.ContributorID]schema.OffsetProfile)
	for _, rec := range records {
		p, ok := profiles[rec.Contributor]
		if !ok {
			p = schema.OffsetProfile{Contributor: rec.Contributor}
		}
		if rec.RawOffset != 0 && (!p.HasCanonical || rec.Instant.Before(p.FirstCanonical)) {
			p.CanonicalOffset = rec.RawOffset
			p.HasCanonical = true
			p.FirstCanonical = rec.Instant
		}
		profiles[rec.Contributor] = p
	}
	return profiles
}

// CountCanonical returns how many profiles carry a canonical offset.
func CountCanonical(profiles map[schema.ContributorID]schema.OffsetProfile) int {
	n := 0
	for _, p := range profiles {
		if p.HasCanonical {
			n++
		}
	}
	return n
}

// Reconciler applies one inclusion policy to the commits of one repository.
type Reconciler struct {
	profiles  map[schema.ContributorID]schema.OffsetProfile
	policy    schema.InclusionPolicy
	intervals schema.IntervalConfig
}

// NewReconciler creates a Reconciler over profiles built by BuildProfiles.
func NewReconciler(profiles map[schema.ContributorID]schema.OffsetProfile, policy schema.InclusionPolicy, intervals schema.IntervalConfig) *Reconciler {
	return &Reconciler{profiles: profiles, policy: policy, intervals: intervals}
}

// Reconcile shifts a commit to its contributor's local time and decides whether it counts.
// A non-empty DropReason means the commit must not be binned.
func (r *Reconciler) Reconcile(rec schema.CommitRecord) (schema.CorrectedCommit, schema.DropReason) {
	p := r.profiles[rec.Contributor]

	switch r.policy {
	case schema.RequireCanonical:
		if !p.HasCanonical {
			return schema.CorrectedCommit{}, schema.DropPolicy
		}
	case schema.FromFirstCanonical:
		if !p.HasCanonical {
			return schema.CorrectedCommit{}, schema.DropPolicy
		}
		if rec.Instant.Before(p.FirstCanonical) {
			return schema.CorrectedCommit{}, schema.DropBeforeCanonical
		}
	}

	offset := rec.RawOffset
	if p.HasCanonical {
		offset = p.CanonicalOffset
	}
	local := ToLocal(rec.Instant, offset)

	interval, ok := r.intervals.Index(local.Year())
	if !ok {
		return schema.CorrectedCommit{}, schema.DropWindow
	}

	return schema.CorrectedCommit{
		Contributor: rec.Contributor,
		Local:       local,
		Offset:      offset,
		RawOffset:   rec.RawOffset,
		Day:         DayIndex(local.Weekday()),
		Hour:        local.Hour(),
		Year:        local.Year(),
		Interval:    interval,
		LinesAdded:  rec.LinesAdded,
	}, schema.NotDropped
}

// ToLocal returns the wall-clock time of instant at a UTC offset in minutes.
func ToLocal(instant time.Time, offsetMinutes int) time.Time {
	return instant.In(time.FixedZone("", offsetMinutes*60))
}

// DayIndex maps a weekday to a Monday-first index (Monday = 0 ... Sunday = 6).
func DayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
