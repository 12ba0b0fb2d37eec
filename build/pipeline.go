package build

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/d5214/ranksearch/config"
	"github.com/d5214/ranksearch/indexfile"
	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/pagetable"
	"github.com/d5214/ranksearch/tokenize"
)

// State is one stage of the build pipeline's state machine:
// Idle -> Ingesting -> Merging -> Encoding -> Ready.
type State int

const (
	Idle State = iota
	Ingesting
	Merging
	Encoding
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ingesting:
		return "ingesting"
	case Merging:
		return "merging"
	case Encoding:
		return "encoding"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Paths names every artefact the pipeline reads or writes.
type Paths struct {
	Corpus    string // line-delimited "docId\trawText" input
	RunDir    string // directory for intermediate run files
	Merged    string // merged postings file
	Index     string // final compressed index
	Lexicon   string // lexicon file
	PageTable string // page table file
}

// Pipeline drives a build from raw corpus to a Ready, query-able index.
type Pipeline struct {
	paths Paths
	cfg   config.Build
	state State

	// Progress, if set, is called after each ingested line with the number
	// of lines processed so far; it is the pipeline's hook for a CLI
	// progress bar.
	Progress func(linesProcessed int)
}

// New returns a pipeline in the Idle state.
func New(paths Paths, cfg config.Build) *Pipeline {
	return &Pipeline{paths: paths, cfg: cfg, state: Idle}
}

// State returns the pipeline's current stage.
func (p *Pipeline) State() State { return p.state }

// Run executes every stage gated on by cfg, in order, leaving the pipeline
// in the Ready state on success.
func (p *Pipeline) Run() error {
	if err := os.MkdirAll(p.paths.RunDir, 0o755); err != nil {
		return fmt.Errorf("build: mkdir %s: %w", p.paths.RunDir, err)
	}

	var runPaths []string
	if p.cfg.ParseIndex {
		p.state = Ingesting
		paths, err := p.ingest()
		if err != nil {
			return fmt.Errorf("build: ingest: %w", err)
		}
		runPaths = paths
	} else {
		paths, err := existingRunFiles(p.paths.RunDir)
		if err != nil {
			return err
		}
		runPaths = paths
	}

	if p.cfg.Merge {
		p.state = Merging
		n, err := MergeRuns(runPaths, p.paths.Merged)
		if err != nil {
			return fmt.Errorf("build: merge: %w", err)
		}
		log.Printf("build: merged %d distinct terms from %d runs", n, len(runPaths))
		if p.cfg.DeleteIntermediate {
			for _, rp := range runPaths {
				if err := os.Remove(rp); err != nil {
					log.Printf("build: warning: failed to remove run file %s: %v", rp, err)
				}
			}
		}
	}

	p.state = Encoding
	if err := p.encode(); err != nil {
		return fmt.Errorf("build: encode: %w", err)
	}

	p.state = Ready
	return nil
}

func existingRunFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("build: read run dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "run-") {
			paths = append(paths, dir+string(os.PathSeparator)+e.Name())
		}
	}
	return paths, nil
}

// ingest reads the line-delimited corpus ("docIdAscii \t rawText" per
// line), tokenises each document, accumulates postings in a
// memory-bounded RunBuffer, and builds the page table alongside it.
func (p *Pipeline) ingest() ([]string, error) {
	f, err := os.Open(p.paths.Corpus)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", p.paths.Corpus, err)
	}
	defer f.Close()

	buf := NewRunBuffer(p.paths.RunDir, p.cfg.IndexChunkSize)
	table := pagetable.New()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, p.cfg.IndexBufferSize), 64<<20)

	lines := 0
	var dataPos uint64
	for sc.Scan() {
		lines++
		line := sc.Text()
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			log.Printf("build: line %d: no tab separator, skipping", lines)
			continue
		}
		docIDStr := strings.TrimSpace(line[:tab])
		docID64, err := strconv.ParseUint(docIDStr, 10, 32)
		if err != nil {
			log.Printf("build: line %d: non-numeric docId %q, skipping", lines, docIDStr)
			continue
		}
		docID := uint32(docID64)
		text := line[tab+1:]

		counts := make(map[string]uint32)
		var order []string
		tokenize.Each(text, func(tok string) {
			if _, ok := counts[tok]; !ok {
				order = append(order, tok)
			}
			counts[tok]++
		})
		for _, term := range order {
			if err := buf.Insert(term, docID, counts[term]); err != nil {
				return nil, err
			}
		}

		table.Add(pagetable.Document{
			DocID:      docID,
			DataLength: uint32(len(text)),
			WordCount:  uint32(len(order)),
			DocPos:     dataPos,
		})
		dataPos += uint64(len(line)) + 1

		if p.Progress != nil {
			p.Progress(lines)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}
	if _, err := buf.Flush(); err != nil {
		return nil, err
	}
	if err := table.WriteFile(p.paths.PageTable); err != nil {
		return nil, err
	}
	return buf.RunPaths(), nil
}

// encode re-encodes the merged postings stream into the final compressed
// index and lexicon.
func (p *Pipeline) encode() error {
	in, err := os.Open(p.paths.Merged)
	if err != nil {
		return fmt.Errorf("open merged file %s: %w", p.paths.Merged, err)
	}
	defer in.Close()

	out, err := os.Create(p.paths.Index)
	if err != nil {
		return fmt.Errorf("create index %s: %w", p.paths.Index, err)
	}
	defer out.Close()

	enc := indexfile.NewEncoder(out)
	lex := lexicon.New()

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 32<<20)
	for sc.Scan() {
		term, postings, err := parseRunLine(sc.Text())
		if err != nil {
			return err
		}
		i := 0
		iter := func() (indexfile.Posting, bool, error) {
			if i >= len(postings) {
				return indexfile.Posting{}, false, nil
			}
			v := postings[i]
			i++
			return v, true, nil
		}
		entry, err := enc.WriteTerm(iter)
		if err != nil {
			return fmt.Errorf("encode term %q: %w", term, err)
		}
		if p.cfg.Lexicon {
			if err := lex.Insert(term, entry); err != nil {
				return fmt.Errorf("lexicon insert %q: %w", term, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan merged file: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	if p.cfg.Lexicon {
		if err := lex.WriteFile(p.paths.Lexicon); err != nil {
			return err
		}
	}
	return nil
}
