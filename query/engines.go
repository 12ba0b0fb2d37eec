package query

import "github.com/d5214/ranksearch/indexfile"

// taatOR implements term-at-a-time disjunctive evaluation: an accumulator
// keyed by docId (a dense-docId array indexed directly by docId would be a
// valid optimisation when docIds are known to run 0..totalDoc-1; this map
// generalises over that assumption, at the cost of per-entry map overhead),
// summing each term's BM25 contribution across its full posting list.
func (e Engine) taatOR(plan Plan) ([]Result, error) {
	acc := make(map[uint32]float64)
	for _, t := range plan.Terms {
		pl := e.Reader.OpenList(t.Entry)
		err := pl.Walk(func(_ uint32, postings []indexfile.Posting) (bool, error) {
			for _, p := range postings {
				acc[p.DocID] += e.Corpus.Score(t.Entry, p.DocID, p.TF)
			}
			return true, nil
		})
		if err != nil {
			return nil, err
		}
	}
	topk := NewTopK(e.TopK)
	for docID, score := range acc {
		topk.Add(Result{DocID: docID, Score: score})
	}
	return topk.Results(), nil
}

// taatAND implements TAAT conjunctive evaluation: seed from
// the rarest term's full posting list, then for every other term stream its
// blocks (skipping ahead via BlockSkip) to confirm or evict each surviving
// candidate docId in ascending order.
func (e Engine) taatAND(plan Plan) ([]Result, error) {
	rarest := 0
	for i, t := range plan.Terms {
		if t.Entry.DocFreq < plan.Terms[rarest].Entry.DocFreq {
			rarest = i
		}
	}
	rareTerm := plan.Terms[rarest]
	pl := e.Reader.OpenList(rareTerm.Entry)
	postings, err := pl.FullPostings()
	if err != nil {
		return nil, err
	}

	acc := make(map[uint32]float64, len(postings))
	order := make([]uint32, 0, len(postings))
	for _, p := range postings {
		acc[p.DocID] = e.Corpus.Score(rareTerm.Entry, p.DocID, p.TF)
		order = append(order, p.DocID)
	}

	for i, t := range plan.Terms {
		if i == rarest || len(order) == 0 {
			continue
		}
		list := e.Reader.OpenList(t.Entry)
		next := order[:0:0]
		for _, docID := range order {
			tf, found, err := findInList(list, docID)
			if err != nil {
				return nil, err
			}
			if !found {
				delete(acc, docID)
				continue
			}
			acc[docID] += e.Corpus.Score(t.Entry, docID, tf)
			next = append(next, docID)
		}
		order = next
	}

	topk := NewTopK(e.TopK)
	for _, docID := range order {
		topk.Add(Result{DocID: docID, Score: acc[docID]})
	}
	return topk.Results(), nil
}

// findInList looks up target in list's posting stream, starting the search
// no earlier than list's current cursor position and leaving the cursor
// there afterward — correct only when callers present targets in ascending
// order, which taatAND's candidate set guarantees.
func findInList(list *indexfile.PostingList, target uint32) (tf uint32, found bool, err error) {
	pos, ok, err := list.BlockSkip(target)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	list.SeekBlock(pos)

	err = list.Walk(func(lastDocID uint32, postings []indexfile.Posting) (bool, error) {
		if lastDocID < target {
			return true, nil
		}
		for _, p := range postings {
			if p.DocID == target {
				tf, found = p.TF, true
				return false, nil
			}
			if p.DocID > target {
				return false, nil
			}
		}
		return false, nil
	})
	return tf, found, err
}

// daatAND implements DAAT conjunctive evaluation over
// pre-materialised posting lists: cursors per term are aligned to a common
// target docId via binary-search nextGEQ, and every cursor is re-aligned
// past a hit (not just the first) before the next round, avoiding the
// double-processing/skipping bug that a naive single-cursor-advance scheme hits.
func (e Engine) daatAND(plan Plan) ([]Result, error) {
	lists := make([][]indexfile.Posting, len(plan.Terms))
	for i, t := range plan.Terms {
		pl := e.Reader.OpenList(t.Entry)
		postings, err := pl.FullPostings()
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			return nil, nil
		}
		lists[i] = postings
	}

	idx := make([]int, len(lists))
	nextGEQ := func(i int, target uint32) (uint32, bool) {
		list := lists[i]
		lo, hi := idx[i], len(list)
		for lo < hi {
			mid := (lo + hi) / 2
			if list[mid].DocID < target {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		idx[i] = lo
		if lo >= len(list) {
			return 0, false
		}
		return list[lo].DocID, true
	}

	var target uint32
	for i := range lists {
		if lists[i][0].DocID > target {
			target = lists[i][0].DocID
		}
	}

	topk := NewTopK(e.TopK)
	for {
		aligned := true
		for i := range lists {
			doc, ok := nextGEQ(i, target)
			if !ok {
				return topk.Results(), nil
			}
			if doc > target {
				target = doc
				aligned = false
			}
		}
		if !aligned {
			continue
		}

		var score float64
		for i, t := range plan.Terms {
			score += e.Corpus.Score(t.Entry, target, lists[i][idx[i]].TF)
		}
		topk.Add(Result{DocID: target, Score: score})
		target++
	}
}

// daatOR implements DAAT disjunctive evaluation with MaxScore
// early-termination: candidates are processed in ascending
// docId across the union of terms' lists, and evaluation stops once the
// sum of every term's upper-bound contribution can no longer displace the
// weakest kept result. Summing the bound over every term rather than only
// the as-yet-unconsumed ones is a loose-but-always-correct variant of the
// bound, traded here for simplicity over the tighter WAND-style split.
func (e Engine) daatOR(plan Plan) ([]Result, error) {
	type cursor struct {
		entry    Term
		postings []indexfile.Posting
		idx      int
	}

	minLen := e.Corpus.MinWordCount()
	cursors := make([]*cursor, 0, len(plan.Terms))
	var totalMaxScore float64
	for _, t := range plan.Terms {
		pl := e.Reader.OpenList(t.Entry)
		postings, err := pl.FullPostings()
		if err != nil {
			return nil, err
		}
		if len(postings) == 0 {
			continue
		}
		var maxTF uint32
		for _, p := range postings {
			if p.TF > maxTF {
				maxTF = p.TF
			}
		}
		totalMaxScore += e.Corpus.MaxScore(t.Entry, maxTF, minLen)
		cursors = append(cursors, &cursor{entry: t, postings: postings})
	}
	if len(cursors) == 0 {
		return nil, nil
	}

	topk := NewTopK(e.TopK)
	for {
		var minDoc uint32
		found := false
		for _, c := range cursors {
			if c.idx >= len(c.postings) {
				continue
			}
			if d := c.postings[c.idx].DocID; !found || d < minDoc {
				minDoc, found = d, true
			}
		}
		if !found {
			break
		}

		var score float64
		for _, c := range cursors {
			if c.idx < len(c.postings) && c.postings[c.idx].DocID == minDoc {
				score += e.Corpus.Score(c.entry.Entry, minDoc, c.postings[c.idx].TF)
				c.idx++
			}
		}
		topk.Add(Result{DocID: minDoc, Score: score})

		if thr, ok := topk.Threshold(); ok && totalMaxScore <= thr {
			break
		}
	}
	return topk.Results(), nil
}
