// Package pagetable implements the per-document metadata table: docId,
// word count, source byte length, and origin offset into the external
// content store. The table is append-only during build and read-only
// (binary-searchable by docId) once loaded for querying.
package pagetable

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Document is one row of the page table.
type Document struct {
	DocID      uint32
	DataLength uint32 // byte length of the source text
	WordCount  uint32 // distinct-term count; BM25 document length
	DocPos     uint64 // byte offset into the external content store
}

// Table holds the full page table in memory. Documents are appended in
// docId order during ingest (docIds are assumed dense and monotonically
// assigned by the caller) and looked up by binary search
// after Load.
type Table struct {
	docs         []Document
	AvgWordCount float64
}

// New returns an empty table, ready for Add during build.
func New() *Table {
	return &Table{}
}

// Add appends a document. The caller is responsible for presenting
// documents in increasing docId order; Add does not re-sort.
func (t *Table) Add(doc Document) {
	t.docs = append(t.docs, doc)
}

// Len returns the number of documents currently held.
func (t *Table) Len() int { return len(t.docs) }

// At returns the document at table position i (not docId i).
func (t *Table) At(i int) Document { return t.docs[i] }

// FindDocIndex returns the table position of docID via binary search, and
// false if the docId is absent. The table must be sorted by docId, which
// holds for any table built by Add in docId order or reloaded by Load.
func (t *Table) FindDocIndex(docID uint32) (int, bool) {
	lo, hi := 0, len(t.docs)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.docs[mid].DocID < docID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(t.docs) && t.docs[lo].DocID == docID {
		return lo, true
	}
	return 0, false
}

// Find looks up a document by docId directly.
func (t *Table) Find(docID uint32) (Document, bool) {
	idx, ok := t.FindDocIndex(docID)
	if !ok {
		return Document{}, false
	}
	return t.docs[idx], true
}

// recomputeAvg sets AvgWordCount to the mean WordCount across all documents.
func (t *Table) recomputeAvg() {
	if len(t.docs) == 0 {
		t.AvgWordCount = 0
		return
	}
	var sum uint64
	for _, d := range t.docs {
		sum += uint64(d.WordCount)
	}
	t.AvgWordCount = float64(sum) / float64(len(t.docs))
}

// Write serialises the table as one ASCII line per document:
// "docId dataLength wordCount docPos\n".
func (t *Table) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, d := range t.docs {
		if _, err := fmt.Fprintf(bw, "%d %d %d %d\n", d.DocID, d.DataLength, d.WordCount, d.DocPos); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the table to path, truncating any existing file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pagetable: create %s: %w", path, err)
	}
	defer f.Close()
	if err := t.Write(f); err != nil {
		return fmt.Errorf("pagetable: write %s: %w", path, err)
	}
	return f.Close()
}

// Load parses a page table from r, computing AvgWordCount over the result.
// The format is ASCII-parseable regardless of any file-mode flag a caller
// might otherwise gate binary encodings on.
func Load(r io.Reader) (*Table, error) {
	t := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		var d Document
		var docPos uint64
		n, err := fmt.Sscanf(sc.Text(), "%d %d %d %d", &d.DocID, &d.DataLength, &d.WordCount, &docPos)
		if err != nil || n != 4 {
			return nil, fmt.Errorf("pagetable: malformed line %d", line)
		}
		d.DocPos = docPos
		t.Add(d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("pagetable: scan: %w", err)
	}
	t.recomputeAvg()
	return t, nil
}

// LoadFile loads a page table from the file at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pagetable: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
