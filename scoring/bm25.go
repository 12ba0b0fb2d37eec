// Package scoring implements Okapi BM25 document scoring
// against the lexicon's corpus-wide term statistics and the page table's
// per-document length.
package scoring

import (
	"log"
	"math"
	"sync"

	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/pagetable"
)

// k1 and b are the standard Okapi BM25 tuning constants.
const (
	k1 = 1.2
	b  = 0.75
)

// Corpus bundles the statistics BM25 needs: total document count, average
// document length, and per-document lookup.
type Corpus struct {
	Table *pagetable.Table
	N     uint32 // totalDoc
}

// NewCorpus builds a Corpus view over an already-loaded page table.
func NewCorpus(table *pagetable.Table) Corpus {
	return Corpus{Table: table, N: uint32(table.Len())}
}

// missingDocLogOnce limits the page-table-miss warning to one log line per
// process.
var missingDocLogOnce sync.Once

// docLen returns wordCount(docID), falling back to the corpus average (and
// logging the first such miss once) when the page table has no entry for
// docID — this can happen for a docId that exists in the index but was
// pruned from the page table it was reloaded against.
func (c Corpus) docLen(docID uint32) float64 {
	if doc, ok := c.Table.Find(docID); ok {
		return float64(doc.WordCount)
	}
	missingDocLogOnce.Do(func() {
		log.Printf("scoring: docId %d missing from page table, using average word count", docID)
	})
	return c.Table.AvgWordCount
}

// IDF computes idf = log((N - f_t + 0.5) / (f_t + 0.5)) for a term with
// corpus document frequency f_t. It is not clamped to zero: common terms
// across most of the corpus legitimately score negative.
func (c Corpus) IDF(docFreq uint32) float64 {
	n := float64(c.N)
	ft := float64(docFreq)
	return math.Log((n - ft + 0.5) / (ft + 0.5))
}

// Score computes BM25(t, d) given the term's lexicon entry, the document's
// docId, and its term frequency within that document.
func (c Corpus) Score(entry lexicon.Entry, docID uint32, tf uint32) float64 {
	avgLen := c.Table.AvgWordCount
	if avgLen == 0 {
		avgLen = 1
	}
	K := k1 * ((1 - b) + b*c.docLen(docID)/avgLen)
	idf := c.IDF(entry.DocFreq)
	tfF := float64(tf)
	return idf * (k1 + 1) * tfF / (K + tfF)
}

// MaxScore returns the upper-bound BM25 contribution a term can make to any
// document, used as the per-term bound in MaxScore-pruned DAAT-OR
// evaluation. It evaluates the term's IDF against the
// smallest possible K, i.e. the minimum document length in the corpus,
// combined with the term's maximum observed tf. A term with negative idf
// never contributes more than zero, so its bound is 0.
func (c Corpus) MaxScore(entry lexicon.Entry, maxTF uint32, minDocLen float64) float64 {
	avgLen := c.Table.AvgWordCount
	if avgLen == 0 {
		avgLen = 1
	}
	K := k1 * ((1 - b) + b*minDocLen/avgLen)
	idf := c.IDF(entry.DocFreq)
	if idf < 0 {
		return 0
	}
	tfF := float64(maxTF)
	return idf * (k1 + 1) * tfF / (K + tfF)
}

// MinWordCount scans the page table once for the smallest wordCount, for
// callers that need a single corpus-wide minDocLen to pass to MaxScore (e.g.
// a query planner computing every term's bound up front). Returns 0 for an
// empty table.
func (c Corpus) MinWordCount() float64 {
	if c.Table.Len() == 0 {
		return 0
	}
	min := c.Table.At(0).WordCount
	for i := 1; i < c.Table.Len(); i++ {
		if wc := c.Table.At(i).WordCount; wc < min {
			min = wc
		}
	}
	return float64(min)
}
