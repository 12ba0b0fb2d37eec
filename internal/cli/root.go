// Package cli implements the ranksearch command-line front-end: build,
// query, serve, doctor, export, and import subcommands over the core
// build/query/archive packages.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ranksearch",
	Short: "Disk-backed inverted-index search engine: build and query BM25 indexes over text corpora.",
}

// Execute runs the CLI and exits the process on error, matching the
// cobra.CheckErr pattern.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// die prints a formatted message to stderr and exits non-zero.
func die(code int, s string, args ...any) {
	fmt.Fprintln(os.Stderr, fmt.Sprintf(s, args...))
	os.Exit(code)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.ranksearch.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ranksearch")
	}
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
