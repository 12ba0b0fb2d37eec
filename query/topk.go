// Package query implements query tokenisation, term-at-a-time and
// document-at-a-time retrieval over the compressed index, and bounded
// top-K extraction.
package query

import "container/heap"

// Result is one scored document.
type Result struct {
	DocID uint32
	Score float64
}

// topKHeap is a size-bounded min-heap of Results, ordered so the weakest
// result (lowest score, with ties broken by larger docId) sits at the root
// and is the first evicted when a stronger candidate arrives.
type topKHeap []Result

func (h topKHeap) Len() int { return len(h) }
func (h topKHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}
func (h topKHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopK accumulates Results and retains only the K strongest, breaking ties
// on ascending docId.
type TopK struct {
	k int
	h topKHeap
}

// NewTopK returns a collector retaining at most k results. k <= 0 means
// unbounded.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// Add offers a candidate result. If the collector is at capacity and r is
// no stronger than the current weakest kept result, it is dropped.
func (t *TopK) Add(r Result) {
	if t.k <= 0 {
		heap.Push(&t.h, r)
		return
	}
	if t.h.Len() < t.k {
		heap.Push(&t.h, r)
		return
	}
	weakest := t.h[0]
	if r.Score > weakest.Score || (r.Score == weakest.Score && r.DocID < weakest.DocID) {
		heap.Pop(&t.h)
		heap.Push(&t.h, r)
	}
}

// Threshold returns the score of the current weakest kept result, and false
// if the collector has not yet reached capacity k (in which case any
// candidate is still admissible). Used by MaxScore pruning.
func (t *TopK) Threshold() (float64, bool) {
	if t.k <= 0 || t.h.Len() < t.k {
		return 0, false
	}
	return t.h[0].Score, true
}

// Results drains the collector in descending score order, with ties broken
// by ascending docId.
func (t *TopK) Results() []Result {
	out := make([]Result, t.h.Len())
	tmp := make(topKHeap, len(t.h))
	copy(tmp, t.h)
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&tmp).(Result)
	}
	return out
}
