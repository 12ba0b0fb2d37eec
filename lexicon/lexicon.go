// Package lexicon implements the term dictionary: an
// in-memory map from term to its byte range, document frequency, and block
// count within the final compressed index, persisted as one ASCII line per
// term.
package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

// Entry is the lexicon's per-term record.
type Entry struct {
	BeginPos   uint64
	EndPos     uint64
	DocFreq    uint32
	BlockCount uint32
}

// ErrEmptyTerm is returned by Insert when asked to register the empty
// string as a term.
var ErrEmptyTerm = errors.New("lexicon: empty term")

// Lexicon is the in-memory term -> Entry map.
type Lexicon struct {
	terms map[string]Entry
}

// New returns an empty lexicon.
func New() *Lexicon {
	return &Lexicon{terms: make(map[string]Entry)}
}

// Insert registers or overwrites term's entry. A repeated term overwriting
// an existing entry is not expected in normal operation (the block encoder
// emits each term once) and is logged as a likely sign of corruption, but is
// not itself treated as fatal.
func (l *Lexicon) Insert(term string, e Entry) error {
	if term == "" {
		return ErrEmptyTerm
	}
	if _, exists := l.terms[term]; exists {
		log.Printf("lexicon: term %q inserted more than once, overwriting", term)
	}
	l.terms[term] = e
	return nil
}

// Lookup returns term's entry, or false if the term is unknown.
func (l *Lexicon) Lookup(term string) (Entry, bool) {
	e, ok := l.terms[term]
	return e, ok
}

// Len returns the number of distinct terms.
func (l *Lexicon) Len() int { return len(l.terms) }

// Terms returns every term currently registered. Order is unspecified.
func (l *Lexicon) Terms() []string {
	out := make([]string, 0, len(l.terms))
	for t := range l.terms {
		out = append(out, t)
	}
	return out
}

// Write persists the lexicon as "term beginPos endPos docFreq
// blockCount\n" per entry.
func (l *Lexicon) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for term, e := range l.terms {
		if _, err := fmt.Fprintf(bw, "%s %d %d %d %d\n", term, e.BeginPos, e.EndPos, e.DocFreq, e.BlockCount); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the lexicon to path, truncating any existing file.
func (l *Lexicon) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lexicon: create %s: %w", path, err)
	}
	defer f.Close()
	if err := l.Write(f); err != nil {
		return fmt.Errorf("lexicon: write %s: %w", path, err)
	}
	return f.Close()
}

// Load rebuilds a lexicon from its persisted form and logs its cardinality.
func Load(r io.Reader) (*Lexicon, error) {
	l := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		var term string
		var e Entry
		n, err := fmt.Sscanf(sc.Text(), "%s %d %d %d %d", &term, &e.BeginPos, &e.EndPos, &e.DocFreq, &e.BlockCount)
		if err != nil || n != 5 {
			return nil, fmt.Errorf("lexicon: malformed line %d", line)
		}
		if err := l.Insert(term, e); err != nil {
			return nil, fmt.Errorf("lexicon: line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: scan: %w", err)
	}
	log.Printf("lexicon: loaded %d terms", l.Len())
	return l, nil
}

// LoadFile loads a lexicon from the file at path.
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
