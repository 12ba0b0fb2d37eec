package indexfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/varbyte"
)

// writeSizer wraps an io.Writer and tracks the total number of bytes
// written, giving the encoder byte offsets for the lexicon without a
// separate seek/tell round-trip.
type writeSizer struct {
	w    io.Writer
	size uint64
}

func (w *writeSizer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.size += uint64(n)
	return n, err
}

// PostingIterator yields the postings for one term in strictly increasing
// docId order, returning ok == false once exhausted.
type PostingIterator func() (p Posting, ok bool, err error)

// pendingChunk is a chunk that has been gap-encoded but not yet flushed into
// a block.
type pendingChunk struct {
	lastDocID uint32
	docIDs    []byte
	freqs     []byte
}

func (c pendingChunk) payloadBytes() int {
	return len(c.docIDs) + len(c.freqs)
}

// Encoder writes the final compressed index file: one region per term, each
// a sequence of blocks of packed chunks.
type Encoder struct {
	w *writeSizer
}

// NewEncoder wraps w as the destination for the final compressed index.
// w should be positioned at the start of an empty file; the index format
// carries no global header, so every offset the Encoder reports is relative
// to wherever writing began.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: &writeSizer{w: w}}
}

// Offset returns the number of bytes written so far.
func (e *Encoder) Offset() uint64 { return e.w.size }

// WriteTerm encodes one term's full posting list (already merged and
// globally docId-sorted) as a sequence of blocks, and returns the lexicon
// entry describing where it landed.
func (e *Encoder) WriteTerm(next PostingIterator) (lexicon.Entry, error) {
	begin := e.w.size

	var docFreq uint32
	var blockCount uint32
	var pending []pendingChunk
	pendingPayload := 0

	var prevDocID uint32
	var chunkCount int
	var docBuf, freqBuf []byte

	var admitChunk func(c pendingChunk) error
	var flushBlock func() error

	// admitChunk makes room for a freshly closed chunk, flushing the
	// current block first if the chunk would push it over BlockSize.
	admitChunk = func(c pendingChunk) error {
		projectedHeader := blockHeaderSize(len(pending) + 1)
		if len(pending) > 0 && projectedHeader+pendingPayload+c.payloadBytes() > BlockSize {
			if err := flushBlock(); err != nil {
				return err
			}
		}
		pending = append(pending, c)
		pendingPayload += c.payloadBytes()
		return nil
	}

	flushBlock = func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := writeBlock(e.w, pending); err != nil {
			return err
		}
		blockCount++
		pending = nil
		pendingPayload = 0
		return nil
	}

	closeChunk := func() error {
		if chunkCount == 0 {
			return nil
		}
		c := pendingChunk{lastDocID: prevDocID, docIDs: docBuf, freqs: freqBuf}
		docBuf, freqBuf = nil, nil
		chunkCount = 0
		prevDocID = 0
		return admitChunk(c)
	}

	for {
		p, ok, err := next()
		if err != nil {
			return lexicon.Entry{}, fmt.Errorf("indexfile: read posting: %w", err)
		}
		if !ok {
			break
		}
		gap := p.DocID - prevDocID
		docBuf = varbyte.Encode(docBuf, gap)
		freqBuf = varbyte.Encode(freqBuf, p.TF)
		prevDocID = p.DocID
		chunkCount++
		docFreq++

		if chunkCount == PostingsPerChunk {
			if err := closeChunk(); err != nil {
				return lexicon.Entry{}, err
			}
		}
	}
	if err := closeChunk(); err != nil {
		return lexicon.Entry{}, err
	}
	if err := flushBlock(); err != nil {
		return lexicon.Entry{}, err
	}

	if docFreq == 0 {
		return lexicon.Entry{}, fmt.Errorf("indexfile: term has no postings")
	}

	return lexicon.Entry{
		BeginPos:   begin,
		EndPos:     e.w.size,
		DocFreq:    docFreq,
		BlockCount: blockCount,
	}, nil
}

// writeBlock writes one block: chunkCount, the three parallel metadata
// arrays, then each chunk's docId bytes followed by its frequency bytes, in
// order.
func writeBlock(w io.Writer, chunks []pendingChunk) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(chunks)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	var u32 [4]byte
	for _, c := range chunks {
		binary.LittleEndian.PutUint32(u32[:], c.lastDocID)
		if _, err := w.Write(u32[:]); err != nil {
			return err
		}
	}
	for _, c := range chunks {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(c.docIDs)))
		if _, err := w.Write(u32[:]); err != nil {
			return err
		}
	}
	for _, c := range chunks {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(c.freqs)))
		if _, err := w.Write(u32[:]); err != nil {
			return err
		}
	}
	for _, c := range chunks {
		if _, err := w.Write(c.docIDs); err != nil {
			return err
		}
		if _, err := w.Write(c.freqs); err != nil {
			return err
		}
	}
	return nil
}
