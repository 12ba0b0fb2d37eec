package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// writePartialBundle writes a minimal zstd-compressed tar containing only
// the index entry, for exercising Import's missing-entry validation.
func writePartialBundle(w io.Writer, indexPath string) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)
	if err := addFile(tw, IndexEntry, indexPath); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

func TestExportImportRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	paths := Paths{
		Index:     filepath.Join(srcDir, "index.bin"),
		Lexicon:   filepath.Join(srcDir, "lexicon.txt"),
		PageTable: filepath.Join(srcDir, "pagetable.txt"),
	}
	require.NoError(t, os.WriteFile(paths.Index, []byte("fake index bytes"), 0o644))
	require.NoError(t, os.WriteFile(paths.Lexicon, []byte("cat 0 10 1 1\n"), 0o644))
	require.NoError(t, os.WriteFile(paths.PageTable, []byte("1 5 2 0\n"), 0o644))

	bundlePath := filepath.Join(t.TempDir(), "bundle.tar.zst")
	require.NoError(t, ExportFile(bundlePath, paths, CodecZstd))

	outDir := t.TempDir()
	require.NoError(t, ImportFile(bundlePath, outDir, CodecZstd))

	gotIndex, err := os.ReadFile(filepath.Join(outDir, IndexEntry))
	require.NoError(t, err)
	require.Equal(t, "fake index bytes", string(gotIndex))

	gotLex, err := os.ReadFile(filepath.Join(outDir, LexiconEntry))
	require.NoError(t, err)
	require.Equal(t, "cat 0 10 1 1\n", string(gotLex))

	gotTable, err := os.ReadFile(filepath.Join(outDir, PageTableEntry))
	require.NoError(t, err)
	require.Equal(t, "1 5 2 0\n", string(gotTable))
}

func TestImportRejectsIncompleteBundle(t *testing.T) {
	srcDir := t.TempDir()
	indexPath := filepath.Join(srcDir, "index.bin")
	require.NoError(t, os.WriteFile(indexPath, []byte("x"), 0o644))

	// Build a bundle missing lexicon/pagetable by exporting with paths that
	// point at the same file three times is not representative, so instead
	// exercise the missing-entry error path directly against a tar that
	// only contains the index entry.
	bundlePath := filepath.Join(t.TempDir(), "partial.tar.zst")
	f, err := os.Create(bundlePath)
	require.NoError(t, err)
	func() {
		defer f.Close()
		require.NoError(t, writePartialBundle(f, indexPath))
	}()

	outDir := t.TempDir()
	err = ImportFile(bundlePath, outDir, CodecZstd)
	require.Error(t, err)
}

func TestExportImportRoundTripLZ4(t *testing.T) {
	srcDir := t.TempDir()
	paths := Paths{
		Index:     filepath.Join(srcDir, "index.bin"),
		Lexicon:   filepath.Join(srcDir, "lexicon.txt"),
		PageTable: filepath.Join(srcDir, "pagetable.txt"),
	}
	require.NoError(t, os.WriteFile(paths.Index, []byte("fake index bytes"), 0o644))
	require.NoError(t, os.WriteFile(paths.Lexicon, []byte("cat 0 10 1 1\n"), 0o644))
	require.NoError(t, os.WriteFile(paths.PageTable, []byte("1 5 2 0\n"), 0o644))

	bundlePath := filepath.Join(t.TempDir(), "bundle.tar.lz4")
	require.NoError(t, ExportFile(bundlePath, paths, CodecLZ4))

	outDir := t.TempDir()
	require.NoError(t, ImportFile(bundlePath, outDir, CodecLZ4))

	gotIndex, err := os.ReadFile(filepath.Join(outDir, IndexEntry))
	require.NoError(t, err)
	require.Equal(t, "fake index bytes", string(gotIndex))
}

func TestCodecFromStringRejectsUnknown(t *testing.T) {
	_, err := CodecFromString("gzip")
	require.Error(t, err)
}
