// Package archive packages the three build artefacts — final index,
// lexicon, and page table — into a single portable bundle for transport or
// backup, without touching the on-disk index format itself (the
// endian-portability question is answered at this layer, not by changing
// the index's fixed little-endian block encoding). Grounded on the
// MCAP writer's chunk-level compression (chunk_writer.go and
// compression_level.go), which picks between zstd and lz4 per chunk; this
// package offers the same choice once over a tar stream of whole files
// instead of per-block.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression applied to a bundle. zstd gives the best
// ratio and is the default; lz4 trades ratio for faster export/import on
// large indexes.
type Codec int

const (
	CodecZstd Codec = iota
	CodecLZ4
)

func CodecFromString(s string) (Codec, error) {
	switch s {
	case "", "zstd":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("archive: unknown codec %q", s)
	}
}

func (c Codec) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	default:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	}
}

func (c Codec) newReader(r io.Reader) (io.Reader, func() error, error) {
	switch c {
	case CodecLZ4:
		return lz4.NewReader(r), func() error { return nil }, nil
	default:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	}
}

// ArtefactNames are the fixed entry names used inside every bundle, so
// Import can find each file regardless of what the caller named it on
// disk.
const (
	IndexEntry     = "index.bin"
	LexiconEntry   = "lexicon.txt"
	PageTableEntry = "pagetable.txt"
)

// Paths names the three on-disk artefacts to bundle or to write on import.
type Paths struct {
	Index     string
	Lexicon   string
	PageTable string
}

// Export writes a compressed tar of the three artefacts at paths to w using
// the given codec.
func Export(w io.Writer, paths Paths, codec Codec) error {
	zw, err := codec.newWriter(w)
	if err != nil {
		return fmt.Errorf("archive: new compressor: %w", err)
	}
	tw := tar.NewWriter(zw)

	entries := []struct {
		name string
		path string
	}{
		{IndexEntry, paths.Index},
		{LexiconEntry, paths.Lexicon},
		{PageTableEntry, paths.PageTable},
	}
	for _, e := range entries {
		if err := addFile(tw, e.name, e.path); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("archive: close tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: close compressor: %w", err)
	}
	return nil
}

// ExportFile is a convenience wrapper around Export that writes to a new
// file at outPath.
func ExportFile(outPath string, paths Paths, codec Codec) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", outPath, err)
	}
	defer f.Close()
	if err := Export(f, paths, codec); err != nil {
		return err
	}
	return f.Close()
}

func addFile(tw *tar.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive: stat %s: %w", path, err)
	}
	hdr := &tar.Header{
		Name: name,
		Size: info.Size(),
		Mode: 0o644,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archive: write header %s: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archive: copy %s: %w", name, err)
	}
	return nil
}

// Import reads a bundle produced by Export from r and writes its three
// artefacts into dir, using the fixed entry names as filenames. codec must
// match the one Export was called with.
func Import(r io.Reader, dir string, codec Codec) error {
	zr, closeZR, err := codec.newReader(r)
	if err != nil {
		return fmt.Errorf("archive: new decompressor: %w", err)
	}
	defer closeZR()

	tr := tar.NewReader(zr)
	seen := make(map[string]bool)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("archive: read tar header: %w", err)
		}
		outPath := filepath.Join(dir, filepath.Base(hdr.Name))
		out, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("archive: create %s: %w", outPath, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return fmt.Errorf("archive: write %s: %w", outPath, err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		seen[hdr.Name] = true
	}
	for _, required := range []string{IndexEntry, LexiconEntry, PageTableEntry} {
		if !seen[required] {
			return fmt.Errorf("archive: bundle missing entry %q", required)
		}
	}
	return nil
}

// ImportFile is a convenience wrapper around Import that reads from a file
// at bundlePath.
func ImportFile(bundlePath, dir string, codec Codec) error {
	f, err := os.Open(bundlePath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", bundlePath, err)
	}
	defer f.Close()
	return Import(f, dir, codec)
}
