package indexfile

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/varbyte"
)

// Reader is a random-access, read-only view over the final compressed
// index, backed by a single memory-mapped region for the lifetime of the
// open file. All decoding below is pure offset arithmetic over that
// mapping; the OS page cache absorbs repeat access instead of the process
// issuing per-chunk system calls.
type Reader struct {
	f    *os.File
	data mmap.MMap
	size int64
}

// Open mmaps the final index file at path. The file is stat'd once here so
// every subsequent read is checked against the real file size (a read that
// would run past the end is rejected with an error), rather than computing
// a length against an uninitialized stat buffer.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("indexfile: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("indexfile: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("indexfile: %s is empty", path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("indexfile: mmap %s: %w", path, err)
	}
	return &Reader{f: f, data: m, size: info.Size()}, nil
}

// Close unmaps the index and closes the underlying file. It is safe to call
// on every exit path, including after an earlier error from this Reader.
func (r *Reader) Close() error {
	var err error
	if r.data != nil {
		err = r.data.Unmap()
		r.data = nil
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.f = nil
	}
	return err
}

// blockHeader is one block's parsed metadata.
type blockHeader struct {
	lastDocID  []uint32
	docIDSize  []uint32
	freqSize   []uint32
	byteSize   int // header + payload bytes, i.e. how far to advance
	payloadPos int64
}

// openBlock reads the header of the block starting at byte offset pos and
// returns it along with the block's total on-disk size.
func (r *Reader) openBlock(pos int64) (blockHeader, error) {
	if pos < 0 || pos+4 > r.size {
		return blockHeader{}, fmt.Errorf("indexfile: block offset %d out of range", pos)
	}
	chunkCount := int(binary.LittleEndian.Uint32(r.data[pos : pos+4]))
	headerLen := int64(blockHeaderSize(chunkCount))
	if pos+headerLen > r.size {
		return blockHeader{}, fmt.Errorf("indexfile: truncated block header at %d", pos)
	}
	hdr := blockHeader{
		lastDocID: make([]uint32, chunkCount),
		docIDSize: make([]uint32, chunkCount),
		freqSize:  make([]uint32, chunkCount),
	}
	cursor := pos + blockHeaderFixedBytes
	for i := 0; i < chunkCount; i++ {
		hdr.lastDocID[i] = binary.LittleEndian.Uint32(r.data[cursor : cursor+4])
		cursor += 4
	}
	for i := 0; i < chunkCount; i++ {
		hdr.docIDSize[i] = binary.LittleEndian.Uint32(r.data[cursor : cursor+4])
		cursor += 4
	}
	for i := 0; i < chunkCount; i++ {
		hdr.freqSize[i] = binary.LittleEndian.Uint32(r.data[cursor : cursor+4])
		cursor += 4
	}
	hdr.payloadPos = cursor

	var payload int64
	for i := 0; i < chunkCount; i++ {
		payload += int64(hdr.docIDSize[i]) + int64(hdr.freqSize[i])
	}
	if cursor+payload > r.size {
		return blockHeader{}, fmt.Errorf("indexfile: truncated block payload at %d", pos)
	}
	hdr.byteSize = int(headerLen + payload)
	return hdr, nil
}

// decodeChunk decodes every varbyte-encoded value in the size bytes starting
// at byte offset start; n is only a capacity hint for the result slice.
func (r *Reader) decodeChunk(start int64, size uint32, n int) ([]uint32, error) {
	if start < 0 || start+int64(size) > r.size {
		return nil, fmt.Errorf("indexfile: chunk region [%d,%d) out of range", start, start+int64(size))
	}
	return varbyte.DecodeAll(r.data[start:start+int64(size)], n)
}

// PostingList is an open, chunk-granularity cursor over one term's region
// of the index.
type PostingList struct {
	r       *Reader
	entry   lexicon.Entry
	blockAt int64
}

// OpenList opens a posting-list cursor over entry's byte range.
func (r *Reader) OpenList(entry lexicon.Entry) *PostingList {
	return &PostingList{r: r, entry: entry, blockAt: int64(entry.BeginPos)}
}

// Entry returns the lexicon entry this list was opened from.
func (pl *PostingList) Entry() lexicon.Entry { return pl.entry }

// SeekBlock repositions the cursor to start Walk at the block beginning at
// byte offset pos (as returned by BlockSkip).
func (pl *PostingList) SeekBlock(pos int64) { pl.blockAt = pos }

// Reset repositions the cursor back to the start of the list.
func (pl *PostingList) Reset() { pl.blockAt = int64(pl.entry.BeginPos) }

// ChunkFunc is called once per decoded chunk during iteration; returning
// false stops iteration early.
type ChunkFunc func(lastDocID uint32, postings []Posting) (keepGoing bool, err error)

// Walk iterates every block and chunk in the posting list from its current
// position to entry.EndPos, decoding docIds and frequencies and invoking fn
// once per chunk. A chunk's posting count is not tracked globally — it
// falls out of how many gaps its docId stream decodes to, which lets Walk
// start from any block boundary (e.g. one found by BlockSkip) without first
// replaying the whole list.
func (pl *PostingList) Walk(fn ChunkFunc) error {
	pos := pl.blockAt
	for pos < int64(pl.entry.EndPos) {
		hdr, err := pl.r.openBlock(pos)
		if err != nil {
			return err
		}
		cursor := hdr.payloadPos
		for i := range hdr.lastDocID {
			docGaps, err := pl.r.decodeChunk(cursor, hdr.docIDSize[i], 0)
			if err != nil {
				return err
			}
			cursor += int64(hdr.docIDSize[i])
			freqs, err := pl.r.decodeChunk(cursor, hdr.freqSize[i], 0)
			if err != nil {
				return err
			}
			cursor += int64(hdr.freqSize[i])
			if len(docGaps) != len(freqs) {
				return fmt.Errorf("indexfile: chunk docId/freq count mismatch (%d vs %d)", len(docGaps), len(freqs))
			}

			postings := make([]Posting, len(docGaps))
			var docID uint32
			for j, gap := range docGaps {
				docID += gap
				postings[j] = Posting{DocID: docID, TF: freqs[j]}
			}
			keepGoing, err := fn(hdr.lastDocID[i], postings)
			if err != nil {
				return err
			}
			if !keepGoing {
				return nil
			}
		}
		pos += int64(hdr.byteSize)
	}
	return nil
}

// FullPostings decodes every block of the list and concatenates the result,
// for convenience call sites such as TAAT evaluation.
func (pl *PostingList) FullPostings() ([]Posting, error) {
	out := make([]Posting, 0, pl.entry.DocFreq)
	err := pl.Walk(func(_ uint32, postings []Posting) (bool, error) {
		out = append(out, postings...)
		return true, nil
	})
	return out, err
}

// Blocks counts the blocks spanning the list's full byte range, for
// coherence checks against the lexicon's recorded BlockCount.
func (pl *PostingList) Blocks() (int, error) {
	count := 0
	pos := int64(pl.entry.BeginPos)
	for pos < int64(pl.entry.EndPos) {
		hdr, err := pl.r.openBlock(pos)
		if err != nil {
			return 0, err
		}
		count++
		pos += int64(hdr.byteSize)
	}
	return count, nil
}

// BlockSkip scans block headers starting at the list's current position and
// returns the byte offset of the first block whose lastDocId array's
// maximum (i.e. its final entry, since lastDocId is strictly increasing) is
// >= target, skipping undecoded blocks whose entire content precedes
// target. It returns ok == false if no such block exists before EndPos.
func (pl *PostingList) BlockSkip(target uint32) (pos int64, ok bool, err error) {
	cur := pl.blockAt
	for cur < int64(pl.entry.EndPos) {
		hdr, err := pl.r.openBlock(cur)
		if err != nil {
			return 0, false, err
		}
		if len(hdr.lastDocID) > 0 && hdr.lastDocID[len(hdr.lastDocID)-1] >= target {
			return cur, true, nil
		}
		cur += int64(hdr.byteSize)
	}
	return 0, false, nil
}
