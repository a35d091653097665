package pathfinder

import "container/heap"

// ErrQueueInvariant is returned when the Label-Stop Queue's bookkeeping is
// violated (a popped stop missing from the map, or a non-positive live
// count) and when a pop is attempted on an empty queue. The queue returns
// it without logging; FindPath passes it on to its caller.
type ErrQueueInvariant struct {
	Reason string
}

func (e *ErrQueueInvariant) Error() string {
	return "label-stop queue invariant violated: " + e.Reason
}

// item is one heap entry: a (label, stop) pair. index is maintained by
// heap.Interface for O(log n) Fix.
type item struct {
	label  float64
	stopID int
	index  int
}

// itemHeap is the underlying container/heap, ordered by ascending label
// then ascending stop id, mirroring LabelStopCompare.
type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].label != h[j].label {
		return h[i].label < h[j].label
	}
	return h[i].stopID < h[j].stopID
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x any) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// labelCount is the per-stop bookkeeping record: the lowest label
// currently valid for the stop, whether that entry is still live, and how
// many instances (valid and stale) of the stop sit in the heap.
type labelCount struct {
	label    float64
	valid    bool
	liveCopy int
}

// LabelStopQueue is a min-priority queue over (label, stop_id) with the
// additional constraint that each stop id has at most one valid entry at
// any time: pushing a smaller label for an already-queued stop supersedes
// the old entry instead of adding a second live one. This gives
// Dijkstra-style decrease-key semantics on top of a plain binary heap,
// amortizing the "decrease" as a stale-entry skip on pop.
type LabelStopQueue struct {
	heap       itemHeap
	bookkeep   map[int]*labelCount
	validCount int
}

// NewLabelStopQueue returns an empty queue.
func NewLabelStopQueue() *LabelStopQueue {
	q := &LabelStopQueue{
		heap:     make(itemHeap, 0),
		bookkeep: make(map[int]*labelCount),
	}
	heap.Init(&q.heap)
	return q
}

// Push offers (label, stopID). If the stop has no valid entry, it is
// inserted. If it has a valid entry with a strictly larger label, the new,
// smaller label supersedes it (the heap keeps the stale entry, filtered on
// Pop). Otherwise the push is dropped.
func (q *LabelStopQueue) Push(label float64, stopID int) {
	lc, ok := q.bookkeep[stopID]
	if !ok {
		heap.Push(&q.heap, &item{label: label, stopID: stopID})
		q.bookkeep[stopID] = &labelCount{label: label, valid: true, liveCopy: 1}
		q.validCount++
		return
	}
	if !lc.valid {
		heap.Push(&q.heap, &item{label: label, stopID: stopID})
		lc.label = label
		lc.valid = true
		lc.liveCopy++
		q.validCount++
		return
	}
	if label < lc.label {
		heap.Push(&q.heap, &item{label: label, stopID: stopID})
		lc.label = label
		lc.liveCopy++
		return
	}
	// label >= lc.label: the smaller entry already queued will reprocess
	// this stop; drop the push.
}

// PopTop discards stale heap entries (stops marked invalid, or whose label
// no longer matches the remembered one) and returns the first live match.
// It marks that stop's entry invalid so a future Push reactivates it.
func (q *LabelStopQueue) PopTop() (label float64, stopID int, err error) {
	for {
		if q.heap.Len() == 0 {
			return 0, 0, &ErrQueueInvariant{Reason: "pop_top called on empty queue"}
		}
		top := q.heap[0]
		lc, ok := q.bookkeep[top.stopID]
		if !ok {
			return 0, 0, &ErrQueueInvariant{Reason: "popped stop absent from bookkeeping map"}
		}
		if lc.liveCopy <= 0 {
			return 0, 0, &ErrQueueInvariant{Reason: "live copy count went non-positive"}
		}
		if !lc.valid || lc.label != top.label {
			heap.Pop(&q.heap)
			lc.liveCopy--
			continue
		}
		heap.Pop(&q.heap)
		lc.valid = false
		lc.liveCopy--
		q.validCount--
		return top.label, top.stopID, nil
	}
}

// Size returns the number of distinct stops with a currently valid entry.
func (q *LabelStopQueue) Size() int { return q.validCount }

// Empty reports whether no stop has a valid entry.
func (q *LabelStopQueue) Empty() bool { return q.validCount == 0 }
