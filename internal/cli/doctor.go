package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/d5214/ranksearch/indexfile"
	"github.com/d5214/ranksearch/lexicon"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor <dir>",
	Short: "Validate lexicon-to-index coherence (beginPos/endPos/blockCount) for a built index",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		dir := args[0]
		paths := artifactPaths(dir)

		r, err := indexfile.Open(paths.Index)
		if err != nil {
			die(2, "doctor: %v", err)
		}
		defer r.Close()

		lex, err := lexicon.LoadFile(paths.Lexicon)
		if err != nil {
			die(2, "doctor: %v", err)
		}

		bad := 0
		for _, term := range lex.Terms() {
			entry, _ := lex.Lookup(term)
			pl := r.OpenList(entry)
			blocks, err := pl.Blocks()
			if err != nil {
				fmt.Fprintf(os.Stderr, "doctor: term %q: %v\n", term, err)
				bad++
				continue
			}
			if uint32(blocks) != entry.BlockCount {
				fmt.Fprintf(os.Stderr, "doctor: term %q: walked %d blocks, lexicon says %d\n", term, blocks, entry.BlockCount)
				bad++
			}
		}

		if bad > 0 {
			fmt.Fprintf(os.Stderr, "doctor: %d term(s) failed coherence check\n", bad)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "doctor: %d terms OK\n", lex.Len())
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
