package indexfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d5214/ranksearch/lexicon"
)

func iterFrom(postings []Posting) PostingIterator {
	i := 0
	return func() (Posting, bool, error) {
		if i >= len(postings) {
			return Posting{}, false, nil
		}
		p := postings[i]
		i++
		return p, true, nil
	}
}

func buildSingleTermFile(t *testing.T, postings []Posting) (string, lexicon.Entry) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := NewEncoder(f)
	entry, err := enc.WriteTerm(iterFrom(postings))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return path, entry
}
