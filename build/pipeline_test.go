package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d5214/ranksearch/config"
	"github.com/d5214/ranksearch/indexfile"
	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/pagetable"
)

func writeCorpus(t *testing.T, dir string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.tsv")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	corpus := writeCorpus(t, dir, []string{
		"1\tthe quick brown fox",
		"2\tthe lazy dog sleeps",
		"3\tquick fox jumps over the lazy dog",
	})

	cfg := config.DefaultBuild()
	cfg.IndexChunkSize = 1 // force a flush per insert, exercising multi-run merge
	cfg.RunDir = filepath.Join(dir, "runs")

	paths := Paths{
		Corpus:    corpus,
		RunDir:    cfg.RunDir,
		Merged:    filepath.Join(dir, "merged.txt"),
		Index:     filepath.Join(dir, "index.bin"),
		Lexicon:   filepath.Join(dir, "lexicon.txt"),
		PageTable: filepath.Join(dir, "pagetable.txt"),
	}

	p := New(paths, cfg)
	require.NoError(t, p.Run())
	require.Equal(t, Ready, p.State())

	lex, err := lexicon.LoadFile(paths.Lexicon)
	require.NoError(t, err)
	require.Greater(t, lex.Len(), 0)

	entry, ok := lex.Lookup("quick")
	require.True(t, ok)
	require.Equal(t, uint32(2), entry.DocFreq)

	table, err := pagetable.LoadFile(paths.PageTable)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	r, err := indexfile.Open(paths.Index)
	require.NoError(t, err)
	defer r.Close()

	pl := r.OpenList(entry)
	postings, err := pl.FullPostings()
	require.NoError(t, err)
	require.Len(t, postings, 2)
	require.Equal(t, uint32(1), postings[0].DocID)
	require.Equal(t, uint32(3), postings[1].DocID)
}

func TestPipelineSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	corpus := writeCorpus(t, dir, []string{
		"1\thello world",
		"not-a-docid\tbad line",
		"no tab here",
		"2\thello again",
	})

	cfg := config.DefaultBuild()
	cfg.RunDir = filepath.Join(dir, "runs")
	paths := Paths{
		Corpus:    corpus,
		RunDir:    cfg.RunDir,
		Merged:    filepath.Join(dir, "merged.txt"),
		Index:     filepath.Join(dir, "index.bin"),
		Lexicon:   filepath.Join(dir, "lexicon.txt"),
		PageTable: filepath.Join(dir, "pagetable.txt"),
	}

	p := New(paths, cfg)
	require.NoError(t, p.Run())

	table, err := pagetable.LoadFile(paths.PageTable)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	lex, err := lexicon.LoadFile(paths.Lexicon)
	require.NoError(t, err)
	entry, ok := lex.Lookup("hello")
	require.True(t, ok)
	require.Equal(t, uint32(2), entry.DocFreq)
}
