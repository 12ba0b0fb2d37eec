package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/d5214/ranksearch/build"
	"github.com/d5214/ranksearch/config"
)

var (
	buildOutDir     string
	buildParseIndex bool
	buildMerge      bool
	buildLexicon    bool
	buildChunkSize  int
)

var buildCmd = &cobra.Command{
	Use:   "build <corpus.tsv>",
	Short: "Build a compressed inverted index from a (docId, text) corpus",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		corpusPath := args[0]
		if buildOutDir == "" {
			die(1, "build: --out is required")
		}
		if err := os.MkdirAll(buildOutDir, 0o755); err != nil {
			die(1, "build: %v", err)
		}

		cfg := config.DefaultBuild()
		cfg.ParseIndex = buildParseIndex
		cfg.Merge = buildMerge
		cfg.Lexicon = buildLexicon
		if buildChunkSize > 0 {
			cfg.IndexChunkSize = buildChunkSize
		}

		paths := artifactPaths(buildOutDir)
		paths.Corpus = corpusPath

		bar := progressbar.Default(-1, "ingesting")
		p := build.New(paths, cfg)
		p.Progress = func(n int) { bar.Set(n) }

		if err := p.Run(); err != nil {
			die(1, "build: %v", err)
		}
		bar.Finish()
		fmt.Fprintf(os.Stderr, "build: index ready in %s\n", buildOutDir)
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildOutDir, "out", "", "output directory for the built index")
	buildCmd.Flags().BoolVar(&buildParseIndex, "parse-index", true, "run the ingest phase (PARSE_INDEX)")
	buildCmd.Flags().BoolVar(&buildMerge, "merge", true, "run the external-merge phase (MERGE)")
	buildCmd.Flags().BoolVar(&buildLexicon, "lexicon", true, "(re)write the lexicon during encoding (LEXICON)")
	buildCmd.Flags().IntVar(&buildChunkSize, "chunk-size", 0, "in-memory posting buffer byte budget (0 keeps the default)")
	rootCmd.AddCommand(buildCmd)
}
