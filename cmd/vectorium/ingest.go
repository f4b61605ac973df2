package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectorium/internal/ingest"
)

var watchMode bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory>",
	Short: "Ingest a directory of documents into the collection",
	Long: `Ingest every matching document under the directory: each non-empty line
is embedded and upserted as one point.

Examples:
  # One-shot ingestion
  vectorium ingest ./docs

  # Keep watching for changes after the initial run
  # (requires ingest.id_policy: pathhash)
  vectorium ingest --watch ./docs`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&watchMode, "watch", false, "re-ingest files as they change")
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil {
		return fmt.Errorf("cannot access %s: %w", dir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	app, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.store.EnsureCollection(ctx); err != nil {
		return err
	}

	svc, err := ingest.NewService(app.cfg.Ingest, app.lane, app.store, app.logger)
	if err != nil {
		return err
	}

	count, err := svc.IngestDirectory(ctx, dir)
	if err != nil {
		app.logger.Error("ingestion failed", zap.Error(err))
		return err
	}
	fmt.Printf("Ingested %d points into %q\n", count, app.store.Collection())

	if !watchMode {
		return nil
	}

	watcher, err := ingest.NewWatcher(svc, app.logger)
	if err != nil {
		return err
	}
	if err := watcher.Watch(ctx, dir); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
