package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/d5214/ranksearch/archive"
)

var (
	exportOut   string
	exportCodec string
	importCodec string
)

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Bundle a built index's artefacts into a portable compressed archive",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		dir := args[0]
		if exportOut == "" {
			die(1, "export: --out is required")
		}
		codec, err := archive.CodecFromString(exportCodec)
		if err != nil {
			die(1, "export: %v", err)
		}
		if err := archive.ExportFile(exportOut, bundlePaths(dir), codec); err != nil {
			die(1, "export: %v", err)
		}
		fmt.Fprintf(os.Stderr, "export: wrote %s\n", exportOut)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <bundle> <dir>",
	Short: "Unpack a bundle produced by export into an index directory",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		bundlePath, dir := args[0], args[1]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			die(1, "import: %v", err)
		}
		codec, err := archive.CodecFromString(importCodec)
		if err != nil {
			die(1, "import: %v", err)
		}
		if err := archive.ImportFile(bundlePath, dir, codec); err != nil {
			die(1, "import: %v", err)
		}
		fmt.Fprintf(os.Stderr, "import: unpacked into %s\n", dir)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "bundle.tar.zst", "output bundle path")
	exportCmd.Flags().StringVar(&exportCodec, "codec", "zstd", "compression codec: zstd or lz4")
	importCmd.Flags().StringVar(&importCodec, "codec", "zstd", "compression codec the bundle was written with: zstd or lz4")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
