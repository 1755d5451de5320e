package topk

// queue is a bounded binary min-heap of predictions whose root is the worst
// prediction kept so far. It is value based and does not implement
// container/heap, so pushes do not allocate through an interface.
type queue struct {
	items []Prediction
}

func newQueue(capacity int) *queue {
	return &queue{items: make([]Prediction, 0, capacity)}
}

// worse reports whether a ranks below b: a lower score, or an equal score
// with a higher candidate index. NaN scores rank below every other score.
func worse(a, b Prediction) bool {
	aNaN, bNaN := a.Score != a.Score, b.Score != b.Score
	if aNaN != bNaN {
		return aNaN
	}
	if !aNaN && a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Index > b.Index
}

// pushBounded inserts p while keeping at most capacity items. When the queue
// is full p replaces the root only if the root ranks below it.
func (q *queue) pushBounded(p Prediction, capacity int) {
	if len(q.items) < capacity {
		q.items = append(q.items, p)
		q.siftUp(len(q.items) - 1)
		return
	}

	if worse(q.items[0], p) {
		q.items[0] = p
		q.siftDown(0)
	}
}

// pop removes and returns the worst item.
func (q *queue) pop() Prediction {
	n := len(q.items) - 1
	item := q.items[0]
	q.items[0] = q.items[n]
	q.items = q.items[:n]
	if n > 0 {
		q.siftDown(0)
	}
	return item
}

func (q *queue) len() int { return len(q.items) }

// drain empties the queue into a slice ordered best first.
func (q *queue) drain() []Prediction {
	out := make([]Prediction, q.len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = q.pop()
	}
	return out
}

func (q *queue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !worse(q.items[i], q.items[parent]) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *queue) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && worse(q.items[right], q.items[left]) {
			child = right
		}
		if !worse(q.items[child], q.items[i]) {
			break
		}
		q.items[i], q.items[child] = q.items[child], q.items[i]
		i = child
	}
}
