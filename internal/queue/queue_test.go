package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLess(t *testing.T) {
	assert.True(t, Less(Item{Index: 5, Distance: 1}, Item{Index: 0, Distance: 2}))
	assert.True(t, Less(Item{Index: 1, Distance: 1}, Item{Index: 2, Distance: 1}))
	assert.False(t, Less(Item{Index: 2, Distance: 1}, Item{Index: 1, Distance: 1}))
	assert.False(t, Less(Item{Index: 1, Distance: 1}, Item{Index: 1, Distance: 1}))
}

func TestTopK_KeepsSmallest(t *testing.T) {
	q := NewTopK(3)
	for i, d := range []float64{5, 1, 4, 2, 3, 0.5} {
		q.Push(Item{Index: uint32(i), Distance: d})
	}
	require.True(t, q.Full())

	worst, ok := q.Worst()
	require.True(t, ok)
	assert.Equal(t, 2.0, worst.Distance)

	got := q.Drain(nil)
	assert.Equal(t, []Item{{5, 0.5}, {1, 1}, {3, 2}}, got)
	assert.Equal(t, 0, q.Len())
}

func TestTopK_TieBreakLowerIndex(t *testing.T) {
	// Insert in reverse so the lower index arrives last.
	q := NewTopK(2)
	for i := 9; i >= 0; i-- {
		q.Push(Item{Index: uint32(i), Distance: 1})
	}
	assert.Equal(t, []Item{{0, 1}, {1, 1}}, q.Drain(nil))
}

func TestTopK_RejectsEqualToWorst(t *testing.T) {
	q := NewTopK(1)
	assert.True(t, q.Push(Item{Index: 3, Distance: 1}))
	assert.False(t, q.Push(Item{Index: 4, Distance: 1}))
	assert.True(t, q.Push(Item{Index: 2, Distance: 1}))
	assert.Equal(t, []Item{{2, 1}}, q.Drain(nil))
}

func TestTopK_ZeroK(t *testing.T) {
	q := NewTopK(0)
	assert.False(t, q.Push(Item{Index: 0, Distance: 0}))
	assert.Empty(t, q.Drain(nil))
}

func TestTopK_MatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n, k = 500, 17

	items := make([]Item, n)
	for i := range items {
		// Coarse distances force many ties.
		items[i] = Item{Index: uint32(i), Distance: float64(rng.Intn(20))}
	}

	q := NewTopK(k)
	for _, i := range rng.Perm(n) {
		q.Push(items[i])
	}

	want := append([]Item(nil), items...)
	sort.Slice(want, func(i, j int) bool { return Less(want[i], want[j]) })

	buf := make([]Item, 0, 4)
	assert.Equal(t, want[:k], q.Drain(buf))
}

func TestTopK_Reset(t *testing.T) {
	q := NewTopK(2)
	q.Push(Item{Index: 1, Distance: 1})
	q.Reset()
	assert.Equal(t, 0, q.Len())
	_, ok := q.Worst()
	assert.False(t, ok)
	assert.Equal(t, 2, q.K())
}
