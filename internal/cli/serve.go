package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/d5214/ranksearch/indexfile"
	"github.com/d5214/ranksearch/lexicon"
	"github.com/d5214/ranksearch/pagetable"
	"github.com/d5214/ranksearch/query"
	"github.com/d5214/ranksearch/scoring"
	"github.com/d5214/ranksearch/wireserver"
)

var (
	serveAddr string
	serveTopK int
	serveDAAT bool
)

var serveCmd = &cobra.Command{
	Use:   "serve <dir>",
	Short: "Serve BM25 queries over the line-oriented TCP wire protocol",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		dir := args[0]
		paths := artifactPaths(dir)

		r, err := indexfile.Open(paths.Index)
		if err != nil {
			die(1, "serve: %v", err)
		}
		defer r.Close()

		lex, err := lexicon.LoadFile(paths.Lexicon)
		if err != nil {
			die(1, "serve: %v", err)
		}
		table, err := pagetable.LoadFile(paths.PageTable)
		if err != nil {
			die(1, "serve: %v", err)
		}

		s := &wireserver.Server{
			Engine: query.Engine{
				Reader: r,
				Corpus: scoring.NewCorpus(table),
				TopK:   serveTopK,
				DAAT:   serveDAAT,
			},
			Lexicon: lex,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- s.ListenAndServe(serveAddr) }()

		select {
		case err := <-errCh:
			if err != nil {
				die(1, "serve: %v", err)
			}
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "serve: shutting down")
			shutdownCtx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				die(1, "serve: shutdown: %v", err)
			}
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":9915", "address to listen on")
	serveCmd.Flags().IntVar(&serveTopK, "top", 20, "number of top results per query")
	serveCmd.Flags().BoolVar(&serveDAAT, "daat", false, "use DAAT evaluation instead of TAAT")
	rootCmd.AddCommand(serveCmd)
}
