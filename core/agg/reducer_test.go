package agg

import (
	"errors"
	"sync"
	"testing"

	"github.com/huangsam/commitclock/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoWith(name string, complete bool, intervals int, cells map[[2]int]int) schema.RepoBins {
	day := schema.NewBinTable(schema.DaySlot, intervals)
	hour := schema.NewBinTable(schema.HourSlot, intervals)
	for k, v := range cells {
		for range v {
			day.Inc(k[0]%7, k[1])
			hour.Inc(k[0], k[1])
		}
	}
	return schema.RepoBins{Repo: name, Complete: complete, Tables: []*schema.BinTable{day, hour}}
}

var bothKinds = []schema.SlotKind{schema.DaySlot, schema.HourSlot}

func TestMerge(t *testing.T) {
	a := schema.NewBinTable(schema.HourSlot, 2)
	b := schema.NewBinTable(schema.HourSlot, 2)
	a.Inc(3, 0)
	b.Inc(3, 0)
	b.Inc(23, 1)

	ab, err := Merge(a, b)
	require.NoError(t, err)
	ba, err := Merge(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab.Counts, ba.Counts)
	assert.Equal(t, 2, ab.Get(3, 0))
	assert.Equal(t, 1, ab.Get(23, 1))
	assert.Equal(t, 1, a.Get(3, 0), "inputs are not modified")
}

func TestMerge_ShapeMismatch(t *testing.T) {
	_, err := Merge(schema.NewBinTable(schema.HourSlot, 2), schema.NewBinTable(schema.HourSlot, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Merge(schema.NewBinTable(schema.HourSlot, 2), schema.NewBinTable(schema.DaySlot, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestReducer_OrderIndependent(t *testing.T) {
	repos := []schema.RepoBins{
		repoWith("b", true, 2, map[[2]int]int{{1, 0}: 2}),
		repoWith("a", true, 2, map[[2]int]int{{1, 0}: 1, {20, 1}: 4}),
		repoWith("c", true, 2, map[[2]int]int{{8, 1}: 3}),
	}

	forward := NewReducer(bothKinds, 2, false)
	backward := NewReducer(bothKinds, 2, false)
	for i := range repos {
		require.NoError(t, forward.Add(repos[i]))
		require.NoError(t, backward.Add(repos[len(repos)-1-i]))
	}

	assert.Equal(t, forward.Combined(), backward.Combined())
	hour := forward.Combined()[1]
	assert.Equal(t, 3, hour.Get(1, 0))
	assert.Equal(t, 4, hour.Get(20, 1))
	assert.Equal(t, 10, hour.Total())

	names := []string{}
	for _, r := range forward.Repos() {
		names = append(names, r.Repo)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestReducer_ConcurrentAdd(t *testing.T) {
	r := NewReducer(bothKinds, 1, false)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Add(repoWith("x", true, 1, map[[2]int]int{{5, 0}: 1})))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Combined()[1].Get(5, 0))
	assert.Len(t, r.Repos(), 50)
}

func TestReducer_ExcludePartial(t *testing.T) {
	r := NewReducer(bothKinds, 1, true)
	require.NoError(t, r.Add(repoWith("done", true, 1, map[[2]int]int{{2, 0}: 1})))
	require.NoError(t, r.Add(repoWith("half", false, 1, map[[2]int]int{{2, 0}: 7})))

	assert.Equal(t, 1, r.Combined()[1].Get(2, 0))
	assert.Len(t, r.Repos(), 1)
	assert.Equal(t, []string{"half"}, r.Excluded())
}

func TestReducer_KeepPartial(t *testing.T) {
	r := NewReducer(bothKinds, 1, false)
	require.NoError(t, r.Add(repoWith("half", false, 1, map[[2]int]int{{2, 0}: 7})))

	assert.Equal(t, 7, r.Combined()[1].Get(2, 0))
	assert.Empty(t, r.Excluded())
	assert.False(t, r.Repos()[0].Complete)
}

func TestReducer_ShapeMismatchIsFatal(t *testing.T) {
	r := NewReducer(bothKinds, 2, false)
	err := r.Add(repoWith("wrong", true, 3, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	assert.Contains(t, err.Error(), "wrong")

	missing := schema.RepoBins{Repo: "missing", Complete: true, Tables: []*schema.BinTable{schema.NewBinTable(schema.DaySlot, 2)}}
	assert.ErrorIs(t, r.Add(missing), ErrShapeMismatch)
	assert.Empty(t, r.Repos())
}

func TestReducer_CombinedIsACopy(t *testing.T) {
	r := NewReducer([]schema.SlotKind{schema.HourSlot}, 1, false)
	r.Combined()[0].Inc(0, 0)
	assert.Equal(t, 0, r.Combined()[0].Total())
}
