package build

import (
	"bufio"
	"container/heap"
	"fmt"
	"os"

	"github.com/d5214/ranksearch/indexfile"
)

// runReader is a sequential cursor over one run file, buffering the next
// unconsumed (term, postings) pair so the merge heap can peek it.
type runReader struct {
	f        *os.File
	sc       *bufio.Scanner
	term     string
	postings []indexfile.Posting
	done     bool
}

func openRunReader(path string) (*runReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("build: open run %s: %w", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	rr := &runReader{f: f, sc: sc}
	if err := rr.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return rr, nil
}

// advance reads the next line into term/postings, or sets done if the file
// is exhausted.
func (rr *runReader) advance() error {
	if !rr.sc.Scan() {
		if err := rr.sc.Err(); err != nil {
			return fmt.Errorf("build: read run: %w", err)
		}
		rr.done = true
		rr.term, rr.postings = "", nil
		return nil
	}
	term, postings, err := parseRunLine(rr.sc.Text())
	if err != nil {
		return err
	}
	rr.term, rr.postings = term, postings
	return nil
}

func (rr *runReader) Close() error { return rr.f.Close() }

// mergeHeap is a min-heap of runReaders ordered by their current term.
type mergeHeap []*runReader

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].term < h[j].term }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*runReader)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// mergePostings combines base and add, both already docId-sorted, into one
// docId-sorted list, summing frequencies at equal docIds. Because within a
// single build run a given docId is only ever seen by one run file, the
// common case is that add's docIds all follow base's — detected by the
// base.last < add.first fast path — which lets the merge skip a full
// element-wise scan.
func mergePostings(base, add []indexfile.Posting) []indexfile.Posting {
	if len(add) == 0 {
		return base
	}
	if len(base) == 0 {
		return add
	}
	if base[len(base)-1].DocID < add[0].DocID {
		return append(base, add...)
	}
	merged := make([]indexfile.Posting, 0, len(base)+len(add))
	i, j := 0, 0
	for i < len(base) && j < len(add) {
		switch {
		case base[i].DocID == add[j].DocID:
			merged = append(merged, indexfile.Posting{DocID: base[i].DocID, TF: base[i].TF + add[j].TF})
			i++
			j++
		case base[i].DocID < add[j].DocID:
			merged = append(merged, base[i])
			i++
		default:
			merged = append(merged, add[j])
			j++
		}
	}
	merged = append(merged, base[i:]...)
	merged = append(merged, add[j:]...)
	return merged
}

// MergeRuns performs an N-way merge of the sorted run files at paths into a
// single merged file at outPath, where every term appears exactly once with
// its postings concatenated across all runs that contained it. It returns
// the number of distinct terms written.
func MergeRuns(paths []string, outPath string) (int, error) {
	readers := make([]*runReader, 0, len(paths))
	defer func() {
		for _, rr := range readers {
			rr.Close()
		}
	}()

	h := make(mergeHeap, 0, len(paths))
	for _, p := range paths {
		rr, err := openRunReader(p)
		if err != nil {
			return 0, err
		}
		readers = append(readers, rr)
		if !rr.done {
			h = append(h, rr)
		}
	}
	heap.Init(&h)

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("build: create merged file %s: %w", outPath, err)
	}
	w := bufio.NewWriter(out)

	termCount := 0
	for h.Len() > 0 {
		rr := heap.Pop(&h).(*runReader)
		term := rr.term
		postings := rr.postings

		if err := rr.advance(); err != nil {
			return 0, err
		}
		if !rr.done {
			heap.Push(&h, rr)
		}

		for h.Len() > 0 && h[0].term == term {
			next := heap.Pop(&h).(*runReader)
			postings = mergePostings(postings, next.postings)
			if err := next.advance(); err != nil {
				return 0, err
			}
			if !next.done {
				heap.Push(&h, next)
			}
		}

		if err := writeRunLine(w, term, postings); err != nil {
			return 0, err
		}
		termCount++
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	return termCount, out.Close()
}
