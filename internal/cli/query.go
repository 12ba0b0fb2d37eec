package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/d5214/ranksearch/indexfile"
	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/pagetable"
	qry "github.com/d5214/ranksearch/query"
	"github.com/d5214/ranksearch/scoring"
)

var (
	queryMode   string
	queryEngine string
	queryTopK   int
)

var queryCmd = &cobra.Command{
	Use:   "query <dir> <query text>",
	Short: "Evaluate a BM25 query against a built index",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		dir, text := args[0], args[1]
		paths := artifactPaths(dir)

		r, err := indexfile.Open(paths.Index)
		if err != nil {
			die(1, "query: %v", err)
		}
		defer r.Close()

		lex, err := lexicon.LoadFile(paths.Lexicon)
		if err != nil {
			die(1, "query: %v", err)
		}
		table, err := pagetable.LoadFile(paths.PageTable)
		if err != nil {
			die(1, "query: %v", err)
		}

		var mode qry.Mode
		switch queryMode {
		case "and":
			mode = qry.Conjunctive
		case "or":
			mode = qry.Disjunctive
		default:
			die(1, "query: --mode must be \"and\" or \"or\", got %q", queryMode)
		}

		engine := qry.Engine{
			Reader: r,
			Corpus: scoring.NewCorpus(table),
			TopK:   queryTopK,
			DAAT:   queryEngine == "daat",
		}

		plan := qry.Build(text, lex)
		results, err := engine.Run(plan, mode)
		if err != nil {
			die(1, "query: %v", err)
		}
		printResults(os.Stdout, results)
	},
}

func printResults(w *os.File, results []qry.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	buf := &bytes.Buffer{}
	tw := tablewriter.NewWriter(buf)
	tw.SetHeader([]string{"rank", "docId", "score"})
	scoreColor := color.New(color.FgGreen).SprintFunc()
	for i, r := range results {
		tw.Append([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", r.DocID),
			scoreColor(fmt.Sprintf("%.6f", r.Score)),
		})
	}
	tw.Render()
	buf.WriteTo(w)
}

func init() {
	queryCmd.Flags().StringVar(&queryMode, "mode", "or", "query mode: \"and\" or \"or\"")
	queryCmd.Flags().StringVar(&queryEngine, "engine", "taat", "retrieval engine: \"taat\" or \"daat\"")
	queryCmd.Flags().IntVar(&queryTopK, "top", 20, "number of top results to return")
	rootCmd.AddCommand(queryCmd)
}
