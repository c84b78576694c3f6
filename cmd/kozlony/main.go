package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kozlony",
	Short: "Table of contents extraction for Magyar Közlöny issues",
	Long: `Kozlony downloads issues of the Hungarian official gazette (Magyar Közlöny)
and its bulletin (Hivatalos Értesítő), and recovers the table of contents
from the PDF text layer as (id, name, number) entries grouped by chapter.

Commands:
  serve    run the HTTP API
  list     show the latest issues
  toc      extract and export the table of contents of a PDF
  summary  summarize the main chapter of an issue with an LLM`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./kozlony.yaml or ~/.kozlony/kozlony.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd(), listCmd(), tocCmd(), summaryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
