package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d5214/ranksearch/build"
	"github.com/d5214/ranksearch/config"
	"github.com/d5214/ranksearch/indexfile"
	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/pagetable"
	"github.com/d5214/ranksearch/scoring"
)

// buildIndex runs the full ingest -> merge -> encode pipeline over docs and
// returns ready-to-query artefacts, for tests that need a real on-disk
// index rather than hand-built fixtures.
func buildIndex(t *testing.T, docs []string) (*indexfile.Reader, *lexicon.Lexicon, scoring.Corpus) {
	t.Helper()
	dir := t.TempDir()

	corpusPath := filepath.Join(dir, "corpus.tsv")
	content := ""
	for _, d := range docs {
		content += d + "\n"
	}
	require.NoError(t, os.WriteFile(corpusPath, []byte(content), 0o644))

	cfg := config.DefaultBuild()
	cfg.RunDir = filepath.Join(dir, "runs")
	paths := build.Paths{
		Corpus:    corpusPath,
		RunDir:    cfg.RunDir,
		Merged:    filepath.Join(dir, "merged.txt"),
		Index:     filepath.Join(dir, "index.bin"),
		Lexicon:   filepath.Join(dir, "lexicon.txt"),
		PageTable: filepath.Join(dir, "pagetable.txt"),
	}
	p := build.New(paths, cfg)
	require.NoError(t, p.Run())

	r, err := indexfile.Open(paths.Index)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	lex, err := lexicon.LoadFile(paths.Lexicon)
	require.NoError(t, err)

	table, err := pagetable.LoadFile(paths.PageTable)
	require.NoError(t, err)

	return r, lex, scoring.NewCorpus(table)
}

func TestEmptyQueryDisjunctive(t *testing.T) {
	// empty query, disjunctive -> empty result, no error.
	r, lex, corpus := buildIndex(t, []string{"1\thello world"})
	e := Engine{Reader: r, Corpus: corpus, TopK: 10}

	plan := Build("", lex)
	require.True(t, plan.Empty())

	results, err := e.Run(plan, Disjunctive)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSingleTermSingleDoc(t *testing.T) {
	// single doc, single term match.
	r, lex, corpus := buildIndex(t, []string{"1\thello"})
	e := Engine{Reader: r, Corpus: corpus, TopK: 10}

	plan := Build("hello", lex)
	require.False(t, plan.Empty())

	results, err := e.Run(plan, Disjunctive)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint32(1), results[0].DocID)

	entry, _ := lex.Lookup("hello")
	want := corpus.Score(entry, 1, 1)
	require.InDelta(t, want, results[0].Score, 1e-9)
}

func TestANDWithAbsentTerm(t *testing.T) {
	// corpus {1:"cat", 2:"cat dog"}, query "cat mouse", conjunctive ->
	// empty result.
	r, lex, corpus := buildIndex(t, []string{"1\tcat", "2\tcat dog"})
	e := Engine{Reader: r, Corpus: corpus, TopK: 10}

	plan := Build("cat mouse", lex)
	require.Equal(t, []string{"mouse"}, plan.Dropped)
	require.Len(t, plan.Terms, 1)

	results, err := e.Run(plan, Conjunctive)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestANDWithIntersection(t *testing.T) {
	// corpus {1:"cat", 2:"cat dog"}, query "cat dog", conjunctive ->
	// only docId 2.
	r, lex, corpus := buildIndex(t, []string{"1\tcat", "2\tcat dog"})

	catEntry, _ := lex.Lookup("cat")
	dogEntry, _ := lex.Lookup("dog")
	want := corpus.Score(catEntry, 2, 1) + corpus.Score(dogEntry, 2, 1)

	for _, daat := range []bool{false, true} {
		e := Engine{Reader: r, Corpus: corpus, TopK: 10, DAAT: daat}
		plan := Build("cat dog", lex)
		results, err := e.Run(plan, Conjunctive)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, uint32(2), results[0].DocID)
		require.InDelta(t, want, results[0].Score, 1e-9)
	}
}

func TestTopKTieBrokenByAscendingDocID(t *testing.T) {
	// two docs with identical BM25 for query "a" must both appear, in
	// ascending docId order.
	topk := NewTopK(2)
	topk.Add(Result{DocID: 5, Score: 1.0})
	topk.Add(Result{DocID: 2, Score: 1.0})

	results := topk.Results()
	require.Len(t, results, 2)
	require.Equal(t, uint32(2), results[0].DocID)
	require.Equal(t, uint32(5), results[1].DocID)
}

func TestTopKEvictsWeakestOnOverflow(t *testing.T) {
	topk := NewTopK(1)
	topk.Add(Result{DocID: 1, Score: 1.0})
	topk.Add(Result{DocID: 2, Score: 2.0})
	results := topk.Results()
	require.Len(t, results, 1)
	require.Equal(t, uint32(2), results[0].DocID)
}

func TestTAATAndDAATAgree(t *testing.T) {
	r, lex, corpus := buildIndex(t, []string{
		"1\tcat dog",
		"2\tcat dog bird",
		"3\tdog bird",
		"4\tcat dog bird fish",
	})

	planTAAT := Build("cat dog", lex)
	taat, err := (Engine{Reader: r, Corpus: corpus, TopK: 10}).Run(planTAAT, Conjunctive)
	require.NoError(t, err)

	planDAAT := Build("cat dog", lex)
	daat, err := (Engine{Reader: r, Corpus: corpus, TopK: 10, DAAT: true}).Run(planDAAT, Conjunctive)
	require.NoError(t, err)

	require.Equal(t, len(taat), len(daat))
	for i := range taat {
		require.Equal(t, taat[i].DocID, daat[i].DocID)
		require.InDelta(t, taat[i].Score, daat[i].Score, 1e-9)
	}
}
