package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cardport/internal/config"
	"github.com/crimson-sun/cardport/internal/connector/httpclient"
	"github.com/crimson-sun/cardport/internal/connector/metabase"
	"github.com/crimson-sun/cardport/internal/importer"
	"github.com/crimson-sun/cardport/internal/logging"
	"github.com/crimson-sun/cardport/internal/pipeline"
)

var inPath string

var rootCmd = &cobra.Command{
	Use:   "import-cards",
	Short: "Create one Metabase card per entry of queries_formatted.json",
	Long: `Posts every formatted query to METABASE_URL/api/card using METABASE_API_KEY.
The database id is replaced with CARDPORT_TARGET_DB_ID and entries without a
collection go to CARDPORT_COLLECTION_ID. Failed entries are logged and skipped.
Cards are not deduplicated: running twice creates every card twice.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runImport,
}

func init() {
	rootCmd.Flags().StringVar(&inPath, "in", "", "formatted query file (default: queries_formatted.json or CARDPORT_FORMATTED_FILE)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel))

	if inPath == "" {
		inPath = cfg.Files.Formatted
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Warn("received signal, stopping after the current card", "signal", sig)
		cancel()
	}()

	var clientOpts []httpclient.Option
	if cfg.Metabase.Timeout > 0 {
		clientOpts = append(clientOpts, httpclient.WithTimeout(cfg.Metabase.Timeout))
	}
	client := metabase.New(cfg.Metabase.URL, cfg.Metabase.APIKey, clientOpts...)

	im := importer.New(client, importer.Options{
		TargetDatabaseID:    cfg.Import.TargetDatabaseID,
		DefaultCollectionID: cfg.Import.CollectionID,
		DefaultDescription:  cfg.Import.Description,
	}, importer.WithReport(cmd.OutOrStdout()))

	p := pipeline.New(pipeline.WithReport(cmd.OutOrStdout()))
	if _, err := p.Import(ctx, inPath, im); err != nil {
		return fmt.Errorf("import-cards: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
