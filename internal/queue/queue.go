// Package queue provides the bounded top-k selector used by exact search.
package queue

// Item is a candidate neighbor.
type Item struct {
	Index    uint32  // Index is the base row.
	Distance float64 // Distance is the priority.
}

// Less orders items by ascending distance; equal distances order by ascending
// index. It is the single ordering rule of the ground truth.
func Less(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Index < b.Index
}

// TopK keeps the k smallest items under Less.
//
// It is a max-heap on (Distance, Index): the root is the worst retained
// candidate, so a new item is admitted only if it is strictly better than the
// root. Because the index breaks ties, the retained set is the same for any
// insertion order.
type TopK struct {
	k     int
	items []Item
}

// NewTopK returns a selector for k items.
func NewTopK(k int) *TopK {
	return &TopK{
		k:     k,
		items: make([]Item, 0, k),
	}
}

// Len returns the number of retained items.
func (q *TopK) Len() int { return len(q.items) }

// K returns the capacity.
func (q *TopK) K() int { return q.k }

// Reset clears the selector for reuse.
func (q *TopK) Reset() {
	q.items = q.items[:0]
}

// Worst returns the worst retained item.
func (q *TopK) Worst() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Full reports whether k items are retained.
func (q *TopK) Full() bool { return len(q.items) >= q.k }

// Push offers an item. It reports whether the item was retained.
func (q *TopK) Push(it Item) bool {
	if q.k <= 0 {
		return false
	}
	if len(q.items) < q.k {
		q.items = append(q.items, it)
		q.siftUp(len(q.items) - 1)
		return true
	}
	if !Less(it, q.items[0]) {
		return false
	}
	q.items[0] = it
	q.siftDown(0)
	return true
}

// Drain empties the selector into dst in ascending order and returns it.
// dst is grown if needed.
func (q *TopK) Drain(dst []Item) []Item {
	n := len(q.items)
	if cap(dst) < n {
		dst = make([]Item, n)
	}
	dst = dst[:n]
	for i := n - 1; i >= 0; i-- {
		dst[i] = q.items[0]
		last := len(q.items) - 1
		q.items[0] = q.items[last]
		q.items = q.items[:last]
		if last > 0 {
			q.siftDown(0)
		}
	}
	return dst
}

// worse reports whether items[i] ranks after items[j].
func (q *TopK) worse(i, j int) bool {
	return Less(q.items[j], q.items[i])
}

func (q *TopK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.worse(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *TopK) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		worst := l
		if r := l + 1; r < n && q.worse(r, l) {
			worst = r
		}
		if !q.worse(worst, i) {
			return
		}
		q.items[i], q.items[worst] = q.items[worst], q.items[i]
		i = worst
	}
}
