// Package main implements the vectorium CLI for ingesting documents into
// a Qdrant collection and searching them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectorium/internal/config"
	"github.com/fyrsmithlabs/vectorium/internal/embeddings"
	"github.com/fyrsmithlabs/vectorium/internal/logging"
	"github.com/fyrsmithlabs/vectorium/internal/vectorstore"
)

var (
	// configPath overrides the default config file location
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vectorium",
	Short: "Document-to-vector ingestion pipeline backed by Qdrant",
	Long: `vectorium turns directories of text documents into vector points in a
Qdrant collection: each non-empty line is embedded and stored as one point,
ready for semantic search.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/vectorium/config.yaml)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
}

// app bundles the wired subsystems a command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	lane   *embeddings.Lane
	store  *vectorstore.QdrantStore
}

// setup loads configuration and connects the embedding provider and the
// vector store. The returned cleanup must run before the process exits.
func setup() (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	provider, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		logging.Sync(logger)
		return nil, nil, fmt.Errorf("embedding provider: %w", err)
	}

	lane, err := embeddings.NewLane(provider)
	if err != nil {
		provider.Close()
		logging.Sync(logger)
		return nil, nil, err
	}

	if dim := lane.Dimension(); dim > 0 && uint64(dim) != cfg.Qdrant.VectorSize {
		lane.Close()
		logging.Sync(logger)
		return nil, nil, fmt.Errorf("embedding model produces %d-dimensional vectors but qdrant.vector_size is %d",
			dim, cfg.Qdrant.VectorSize)
	}

	store, err := vectorstore.NewQdrantStore(cfg.Qdrant)
	if err != nil {
		lane.Close()
		logging.Sync(logger)
		return nil, nil, fmt.Errorf("vector store: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, lane: lane, store: store}
	cleanup := func() {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing vector store", zap.Error(err))
		}
		if err := a.lane.Close(); err != nil {
			a.logger.Warn("closing embedding lane", zap.Error(err))
		}
		logging.Sync(a.logger)
	}
	return a, cleanup, nil
}
