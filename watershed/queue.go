package watershed

import "container/heap"

// item is a labeled pixel waiting to spread its label.
type item struct {
	pos    int
	weight float64
	seq    uint64
}

// floodQueue pops the lowest weight first. Items of equal weight pop in
// insertion order.
type floodQueue struct {
	items []item
	next  uint64
}

func (q *floodQueue) Len() int { return len(q.items) }

func (q *floodQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	return a.seq < b.seq
}

func (q *floodQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *floodQueue) Push(x any) { q.items = append(q.items, x.(item)) }

func (q *floodQueue) Pop() any {
	n := len(q.items) - 1
	it := q.items[n]
	q.items = q.items[:n]
	return it
}

func (q *floodQueue) push(pos int, weight float64) {
	heap.Push(q, item{pos: pos, weight: weight, seq: q.next})
	q.next++
}

func (q *floodQueue) pop() int {
	return heap.Pop(q).(item).pos
}
