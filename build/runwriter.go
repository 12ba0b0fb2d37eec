// Package build implements the build-side pipeline: accumulating postings
// in a memory-bounded buffer, spilling sorted runs, externally merging
// them, and driving the Idle -> Ingesting -> Merging -> Encoding -> Ready
// state machine.
package build

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/d5214/ranksearch/indexfile"
)

// postBytes is the per-posting byte estimate used by the buffer's
// size accounting (2 uint32s + 2 separators), matching the original
// implementation's POST_BYTES.
const postBytes = 10

// avgWordBytes is the additional estimated byte cost charged the first time
// a term is seen in the buffer, approximating the term string itself plus
// map overhead.
const avgWordBytes = 12

// RunBuffer accumulates postings in memory, spilling a sorted run file to
// disk whenever the next insert would exceed its byte budget. A term
// appears at most once per run file.
type RunBuffer struct {
	dir          string
	budget       int
	currentBytes int
	postings     map[string][]indexfile.Posting
	nextRunID    int
	runPaths     []string
}

// NewRunBuffer returns a buffer that spills run files into dir once its
// estimated size would exceed budgetBytes.
func NewRunBuffer(dir string, budgetBytes int) *RunBuffer {
	return &RunBuffer{
		dir:      dir,
		budget:   budgetBytes,
		postings: make(map[string][]indexfile.Posting),
	}
}

// Insert records one (term, docId, tf) posting. The caller must present
// docIds in increasing order per term (guaranteed by processing documents
// in docId order) so each term's in-buffer list stays sorted.
func (b *RunBuffer) Insert(term string, docID, tf uint32) error {
	_, exists := b.postings[term]
	var estimate int
	if exists {
		estimate = postBytes
	} else {
		estimate = postBytes + avgWordBytes
	}
	if b.currentBytes+estimate > b.budget && len(b.postings) > 0 {
		if _, err := b.Flush(); err != nil {
			return err
		}
		estimate = postBytes + avgWordBytes
	}
	b.postings[term] = append(b.postings[term], indexfile.Posting{DocID: docID, TF: tf})
	b.currentBytes += estimate
	return nil
}

// Flush writes every term currently buffered, in ascending lexicographic
// order, to a new numbered run file, then clears the buffer. It is a no-op
// returning ("", nil) if the buffer is empty.
func (b *RunBuffer) Flush() (string, error) {
	if len(b.postings) == 0 {
		return "", nil
	}
	terms := make([]string, 0, len(b.postings))
	for t := range b.postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	path := filepath.Join(b.dir, fmt.Sprintf("run-%06d.txt", b.nextRunID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("build: create run file %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, term := range terms {
		if err := writeRunLine(w, term, b.postings[term]); err != nil {
			f.Close()
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	b.nextRunID++
	b.postings = make(map[string][]indexfile.Posting)
	b.currentBytes = 0
	b.runPaths = append(b.runPaths, path)
	return path, nil
}

// RunPaths returns every run file written so far, in the order they were
// flushed.
func (b *RunBuffer) RunPaths() []string { return b.runPaths }

// writeRunLine writes one "term:docId tf,docId tf,...\n" record.
func writeRunLine(w *bufio.Writer, term string, postings []indexfile.Posting) error {
	if _, err := w.WriteString(term); err != nil {
		return err
	}
	if err := w.WriteByte(':'); err != nil {
		return err
	}
	for i, p := range postings {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%d %d", p.DocID, p.TF); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// parseRunLine parses one "term:docId tf,docId tf,...\n" record (with the
// trailing newline already stripped).
func parseRunLine(line string) (term string, postings []indexfile.Posting, err error) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", nil, fmt.Errorf("build: malformed run line %q", line)
	}
	term = line[:colon]
	rest := line[colon+1:]
	if rest == "" {
		return term, nil, nil
	}
	for _, part := range strings.Split(rest, ",") {
		var docID, tf uint32
		if _, err := fmt.Sscanf(part, "%d %d", &docID, &tf); err != nil {
			return "", nil, fmt.Errorf("build: malformed posting %q in term %q: %w", part, term, err)
		}
		postings = append(postings, indexfile.Posting{DocID: docID, TF: tf})
	}
	return term, postings, nil
}
