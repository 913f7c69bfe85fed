package agg

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/huangsam/commitclock/schema"
)

// ErrShapeMismatch is returned when two bin tables do not share dimensions.
// It signals a programming or configuration error and aborts the run.
var ErrShapeMismatch = errors.New("bin table shape mismatch")

// Merge returns the element-wise sum of two tables of the same shape.
// Neither input is modified.
func Merge(a, b *schema.BinTable) (*schema.BinTable, error) {
	if !a.SameShape(b) {
		return nil, ErrShapeMismatch
	}
	out := a.Clone()
	out.AddTable(b)
	return out, nil
}

// Reducer folds per-repository tables into combined tables as workers finish.
// Addition is commutative, so the combined result does not depend on completion order.
type Reducer struct {
	mu             sync.Mutex
	kinds          []schema.SlotKind
	excludePartial bool
	combined       map[schema.SlotKind]*schema.BinTable
	repos          []schema.RepoBins
	excluded       []string
}

// NewReducer creates a reducer for the given table kinds and interval count.
func NewReducer(kinds []schema.SlotKind, intervals int, excludePartial bool) *Reducer {
	combined := make(map[schema.SlotKind]*schema.BinTable, len(kinds))
	for _, kind := range kinds {
		combined[kind] = schema.NewBinTable(kind, intervals)
	}
	return &Reducer{
		kinds:          kinds,
		excludePartial: excludePartial,
		combined:       combined,
	}
}

// Add merges one repository result. Incomplete results are set aside when
// partial repositories are excluded; they are neither merged nor retained.
func (r *Reducer) Add(rb schema.RepoBins) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range r.kinds {
		if !r.combined[kind].SameShape(rb.Table(kind)) {
			return fmt.Errorf("%w: repository %s, %s table", ErrShapeMismatch, rb.Repo, kind)
		}
	}

	if !rb.Complete && r.excludePartial {
		r.excluded = append(r.excluded, rb.Repo)
		return nil
	}

	for _, kind := range r.kinds {
		r.combined[kind].AddTable(rb.Table(kind))
	}
	r.repos = append(r.repos, rb)
	return nil
}

// Combined returns copies of the merged tables in kind order.
func (r *Reducer) Combined() []*schema.BinTable {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]*schema.BinTable, 0, len(r.kinds))
	for _, kind := range r.kinds {
		tables = append(tables, r.combined[kind].Clone())
	}
	return tables
}

// Repos returns the retained per-repository results sorted by name.
func (r *Reducer) Repos() []schema.RepoBins {
	r.mu.Lock()
	defer r.mu.Unlock()

	repos := make([]schema.RepoBins, len(r.repos))
	copy(repos, r.repos)
	sort.SliceStable(repos, func(i, j int) bool { return repos[i].Repo < repos[j].Repo })
	return repos
}

// Excluded returns the names of repositories left out as partial.
func (r *Reducer) Excluded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	excluded := make([]string, len(r.excluded))
	copy(excluded, r.excluded)
	sort.Strings(excluded)
	return excluded
}
