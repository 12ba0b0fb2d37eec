package cli

import (
	"path/filepath"

	"github.com/d5214/ranksearch/archive"
	"github.com/d5214/ranksearch/build"
)

// artifactPaths returns the conventional artefact filenames inside an
// index directory, shared by every subcommand that opens or writes a
// built index.
func artifactPaths(dir string) build.Paths {
	return build.Paths{
		RunDir:    filepath.Join(dir, "runs"),
		Merged:    filepath.Join(dir, "merged.txt"),
		Index:     filepath.Join(dir, archive.IndexEntry),
		Lexicon:   filepath.Join(dir, archive.LexiconEntry),
		PageTable: filepath.Join(dir, archive.PageTableEntry),
	}
}

func bundlePaths(dir string) archive.Paths {
	p := artifactPaths(dir)
	return archive.Paths{Index: p.Index, Lexicon: p.Lexicon, PageTable: p.PageTable}
}
