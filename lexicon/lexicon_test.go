package lexicon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertRejectsEmptyTerm(t *testing.T) {
	l := New()
	require.ErrorIs(t, l.Insert("", Entry{}), ErrEmptyTerm)
}

func TestRoundTrip(t *testing.T) {
	l := New()
	require.NoError(t, l.Insert("cat", Entry{BeginPos: 0, EndPos: 40, DocFreq: 2, BlockCount: 1}))
	require.NoError(t, l.Insert("dog", Entry{BeginPos: 40, EndPos: 100, DocFreq: 1, BlockCount: 1}))

	var buf bytes.Buffer
	require.NoError(t, l.Write(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	e, ok := loaded.Lookup("cat")
	require.True(t, ok)
	require.Equal(t, uint64(40), e.EndPos)
	require.Equal(t, uint32(2), e.DocFreq)

	_, ok = loaded.Lookup("missing")
	require.False(t, ok)
}

func TestLoadMalformedLine(t *testing.T) {
	_, err := Load(bytes.NewBufferString("cat not-a-number 1 1 1\n"))
	require.Error(t, err)
}
