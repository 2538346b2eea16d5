package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cardport/internal/config"
	"github.com/crimson-sun/cardport/internal/logging"
	"github.com/crimson-sun/cardport/internal/pipeline"
)

var inPath, outPath string

var rootCmd = &cobra.Command{
	Use:   "format-queries",
	Short: "Convert a saved-query export into queries_formatted.json",
	Long: `Reads the flat-text export (index, name and JSON payload lines),
keeps the entries that carry a native query and writes them as a JSON array
ready for import-cards.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runFormat,
}

func init() {
	rootCmd.Flags().StringVar(&inPath, "in", "", "export file (default: queries.json or CARDPORT_QUERIES_FILE)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "formatted output file (default: queries_formatted.json or CARDPORT_FORMATTED_FILE)")
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel))

	if inPath == "" {
		inPath = cfg.Files.Queries
	}
	if outPath == "" {
		outPath = cfg.Files.Formatted
	}

	p := pipeline.New(pipeline.WithReport(cmd.OutOrStdout()))
	if _, err := p.Format(inPath, outPath); err != nil {
		return fmt.Errorf("format-queries: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
