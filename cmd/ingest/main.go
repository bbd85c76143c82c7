// Package main provides a one-shot catalog ingestion tool. It reads the
// collection CSV, rebuilds the local catalog and optionally pushes the
// result to the remote sheet store, then exits.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/shelfkeeper/shelfkeeper-server/internal/ingest"
	"github.com/shelfkeeper/shelfkeeper-server/internal/logger"
	"github.com/shelfkeeper/shelfkeeper-server/internal/service"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	syncclient "github.com/shelfkeeper/shelfkeeper-server/internal/sync"
)

var (
	flagSource       string
	flagDataDir      string
	flagSyncEndpoint string
	flagLogLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "shelfkeeper-ingest",
	Short: "Rebuild the Shelfkeeper catalog from a CSV export",
	Long: `Reads the collection CSV export, merges duplicate titles, replaces the
local catalog and, when a sync endpoint is configured, pushes the new
state to the remote sheet store.`,
	RunE: runIngest,
}

func init() {
	rootCmd.Flags().StringVar(&flagSource, "source", "", "collection CSV export (file path or URL)")
	rootCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "directory holding the local database")
	rootCmd.Flags().StringVar(&flagSyncEndpoint, "sync-endpoint", "", "remote sheet store URL (optional)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("source")
	_ = rootCmd.MarkFlagRequired("data-dir")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	log := logger.New(logger.Config{
		Level:  logger.ParseLevel(flagLogLevel),
		Writer: os.Stderr,
	})

	db, err := store.New(filepath.Join(flagDataDir, "db"), log.Logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	syncSvc := service.NewSyncService(db, syncclient.NewClient(flagSyncEndpoint, log.Logger), log.Logger)
	catalogSvc := service.NewCatalogService(db, ingest.NewFetcher(), syncSvc, &sync.Mutex{}, flagSource, log.Logger)

	result, err := catalogSvc.Ingest(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("titles: %d, copies merged: %d, failed rows: %d\n", result.Titles, result.Succeeded, result.Failed)
	for _, msg := range result.Errors {
		fmt.Fprintln(os.Stderr, msg)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
