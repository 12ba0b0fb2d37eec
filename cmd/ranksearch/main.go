// Command ranksearch builds and queries disk-backed BM25 inverted indexes.
package main

import "github.com/d5214/ranksearch/internal/cli"

func main() {
	cli.Execute()
}
