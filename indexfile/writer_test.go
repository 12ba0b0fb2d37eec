package indexfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTermRoundTrip(t *testing.T) {
	postings := []Posting{{1, 2}, {5, 1}, {9, 3}}
	path, entry := buildSingleTermFile(t, postings)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint32(len(postings)), entry.DocFreq)
	require.Equal(t, uint32(1), entry.BlockCount)
	require.True(t, entry.BeginPos < entry.EndPos)

	got, err := r.OpenList(entry).FullPostings()
	require.NoError(t, err)
	require.Equal(t, postings, got)
}

func TestWriteTermEmptyIsError(t *testing.T) {
	enc := NewEncoder(newDiscard())
	_, err := enc.WriteTerm(iterFrom(nil))
	require.Error(t, err)
}

// A term with postings at docIds {1, 64, 65, 129} and
// POSTINGS_PER_CHUNK=64 must start a new chunk at the 65th posting (docId
// 65), whose gap is encoded against 0, not against the previous chunk's
// last docId (64).
func TestDeltaResetsAtChunkBoundary(t *testing.T) {
	postings := make([]Posting, 0, 64+3)
	postings = append(postings, Posting{DocID: 1, TF: 1})
	for d := uint32(2); d < 64; d++ {
		postings = append(postings, Posting{DocID: d, TF: 1})
	}
	postings = append(postings,
		Posting{DocID: 64, TF: 1},
		Posting{DocID: 65, TF: 1},
		Posting{DocID: 129, TF: 1},
	)
	require.Len(t, postings, 66)

	path, entry := buildSingleTermFile(t, postings)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	// 66 postings comfortably fit inside one 64KB block even though they
	// span two chunks (chunk boundaries are every 64 postings regardless
	// of block packing).
	require.Equal(t, uint32(1), entry.BlockCount)

	var chunks [][]Posting
	err = r.OpenList(entry).Walk(func(_ uint32, ps []Posting) (bool, error) {
		cp := make([]Posting, len(ps))
		copy(cp, ps)
		chunks = append(chunks, cp)
		return true, nil
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Len(t, chunks[0], 64)
	require.Len(t, chunks[1], 2)
	require.Equal(t, uint32(65), chunks[1][0].DocID)
	require.Equal(t, uint32(129), chunks[1][1].DocID)
}

func TestBlockSkip(t *testing.T) {
	var postings []Posting
	for d := uint32(1); d <= 200; d++ {
		postings = append(postings, Posting{DocID: d, TF: 1})
	}
	path, entry := buildSingleTermFile(t, postings)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	pl := r.OpenList(entry)
	pos, ok, err := pl.BlockSkip(150)
	require.NoError(t, err)
	require.True(t, ok)

	pl2 := r.OpenList(entry)
	pl2.SeekBlock(pos)
	found := false
	err = pl2.Walk(func(_ uint32, ps []Posting) (bool, error) {
		for _, p := range ps {
			if p.DocID == 150 {
				found = true
			}
		}
		return true, nil
	})
	require.NoError(t, err)
	require.True(t, found)
}

func TestLexiconEntryCoherence(t *testing.T) {
	// property 8: beginPos seeks to a well-formed header, and iterating
	// exactly blockCount blocks lands at endPos.
	var postings []Posting
	for d := uint32(1); d <= 500; d++ {
		postings = append(postings, Posting{DocID: d, TF: d % 5})
	}
	path, entry := buildSingleTermFile(t, postings)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	pos := int64(entry.BeginPos)
	var blocks uint32
	for pos < int64(entry.EndPos) {
		hdr, err := r.openBlock(pos)
		require.NoError(t, err)
		pos += int64(hdr.byteSize)
		blocks++
	}
	require.Equal(t, entry.BlockCount, blocks)
	require.Equal(t, int64(entry.EndPos), pos)

	got, err := r.OpenList(entry).Blocks()
	require.NoError(t, err)
	require.Equal(t, int(entry.BlockCount), got)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newDiscard() discardWriter { return discardWriter{} }
