package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// ErrEmbedding indicates the embedding backend failed during the run.
var ErrEmbedding = errors.New("failed to generate embeddings")

// ErrInvalidConfig indicates invalid ingestion configuration.
var ErrInvalidConfig = errors.New("invalid ingest configuration")

// Embedder turns a batch of text units into one vector per unit,
// preserving input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// PointCounter reports how many points the index already holds. An
// upserter that implements it lets counter-policy runs seed their id
// counter from the existing count, so a run over a non-empty collection
// continues the id sequence instead of overwriting earlier points.
type PointCounter interface {
	PointCount(ctx context.Context) (uint64, error)
}

// Config holds the tunables of one ingestion run.
type Config struct {
	// ChunkSize is the maximum number of lines embedded as one batch.
	ChunkSize int `koanf:"chunk_size"`

	// BatchSize is the maximum number of points per upsert call.
	BatchSize int `koanf:"batch_size"`

	// BufferSize is the file-read buffer in bytes.
	BufferSize int `koanf:"buffer_size"`

	// Extensions lists the file extensions to ingest, without dots.
	Extensions []string `koanf:"extensions"`

	// IDPolicy selects counter or pathhash point ids for the run.
	IDPolicy IDPolicy `koanf:"id_policy"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 3000
	}
	if c.BatchSize == 0 {
		c.BatchSize = 15000
	}
	if c.BufferSize == 0 {
		c.BufferSize = 64 * 1024
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{"txt", "md"}
	}
	if c.IDPolicy == "" {
		c.IDPolicy = IDPolicyCounter
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer_size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: at least one file extension required", ErrInvalidConfig)
	}
	if !c.IDPolicy.Valid() {
		return fmt.Errorf("%w: unknown id policy %q", ErrInvalidConfig, c.IDPolicy)
	}
	return nil
}

// Service orchestrates ingestion runs: discovery, chunking, embedding,
// point building and batched upserts.
type Service struct {
	config   Config
	embedder Embedder
	upserter Upserter
	logger   *zap.Logger

	// counter holds the last assigned counter-policy id. It survives
	// across runs on the same service and is seeded once from the index
	// so separate runs never reuse an id.
	counter uint64
	seeded  bool
}

// NewService creates an ingestion service. The embedder is expected to be
// wrapped in a worker lane by the caller so its blocking calls stay off
// goroutines serving other work.
func NewService(config Config, embedder Embedder, upserter Upserter, logger *zap.Logger) (*Service, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder required", ErrInvalidConfig)
	}
	if upserter == nil {
		return nil, fmt.Errorf("%w: upserter required", ErrInvalidConfig)
	}

	return &Service{
		config:   config,
		embedder: embedder,
		upserter: upserter,
		logger:   logger,
	}, nil
}

// IngestDirectory ingests every matching file under dir and returns the
// number of points written by this run.
//
// Files are processed in sorted order so a counter id run over an
// unchanged file set yields reproducible ids. Counter ids continue from
// where the previous run (or the index, via PointCounter) left off, so
// runs write disjoint id ranges. An empty corpus is a valid outcome and
// returns zero without error. Any read, embedding or upsert failure
// aborts the run; batches flushed before the failure stay committed in
// the index.
func (s *Service) IngestDirectory(ctx context.Context, dir string) (uint64, error) {
	paths, err := s.discover(dir)
	if err != nil {
		return 0, err
	}

	if len(paths) == 0 {
		s.logger.Warn("no documents found", zap.String("dir", dir), zap.Strings("extensions", s.config.Extensions))
		return 0, nil
	}

	if err := s.seedCounter(ctx); err != nil {
		return 0, err
	}

	s.logger.Info("starting ingestion",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.String("id_policy", string(s.config.IDPolicy)))

	dispatcher := NewDispatcher(s.upserter, s.config.BatchSize, s.logger)

	start := s.counter
	counter := s.counter
	for _, path := range paths {
		counter, err = s.processFile(ctx, path, dispatcher, counter)
		if err != nil {
			return 0, err
		}
	}

	if err := dispatcher.Flush(ctx); err != nil {
		return 0, err
	}

	s.counter = counter
	written := counter - start
	s.logger.Info("ingestion finished", zap.Uint64("points", written))
	return written, nil
}

// IngestFile ingests a single file, flushing everything it produced before
// returning. Used by watch mode, where each changed file is its own run.
func (s *Service) IngestFile(ctx context.Context, path string) (uint64, error) {
	if err := s.seedCounter(ctx); err != nil {
		return 0, err
	}

	dispatcher := NewDispatcher(s.upserter, s.config.BatchSize, s.logger)

	start := s.counter
	count, err := s.processFile(ctx, path, dispatcher, start)
	if err != nil {
		return 0, err
	}
	if err := dispatcher.Flush(ctx); err != nil {
		return 0, err
	}

	s.counter = count
	return count - start, nil
}

// seedCounter initializes the counter from the index's existing point
// count, once per service. Only counter-policy runs need it; pathhash ids
// never depend on the counter.
func (s *Service) seedCounter(ctx context.Context) error {
	if s.seeded || s.config.IDPolicy != IDPolicyCounter {
		return nil
	}
	s.seeded = true

	pc, ok := s.upserter.(PointCounter)
	if !ok {
		return nil
	}

	n, err := pc.PointCount(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading index point count: %v", ErrUpsert, err)
	}
	if n > s.counter {
		s.counter = n
	}
	return nil
}

// discover returns all files under dir matching the configured extensions,
// in sorted order for deterministic processing.
func (s *Service) discover(dir string) ([]string, error) {
	var paths []string
	for _, ext := range s.config.Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*."+ext))
		if err != nil {
			return nil, fmt.Errorf("%w: bad glob for extension %q: %v", ErrInvalidConfig, ext, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

// processFile runs the read → chunk → embed → build → dispatch pipeline for
// one file, carrying the running id counter forward, and returns its new
// value. A file with no non-empty lines is skipped with a warning.
func (s *Service) processFile(ctx context.Context, path string, dispatcher *Dispatcher, counter uint64) (uint64, error) {
	meta, err := NewDocumentMeta(path)
	if err != nil {
		return 0, err
	}

	s.logger.Info("processing file", zap.String("file", meta.Name))

	// Ordinal of the next line within this file, independent of the
	// run-wide counter so pathhash ids stay stable across runs.
	var ordinal uint64

	err = ReadChunks(path, s.config.BufferSize, s.config.ChunkSize, func(chunk []string) error {
		vectors, err := s.embedder.EmbedDocuments(ctx, chunk)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
		if len(vectors) != len(chunk) {
			return fmt.Errorf("%w: got %d vectors for %d lines", ErrEmbedding, len(vectors), len(chunk))
		}

		for i, line := range chunk {
			counter++
			point := BuildPoint(s.config.IDPolicy, line, vectors[i], meta, counter, ordinal)
			ordinal++
			if err := dispatcher.Add(ctx, point); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if ordinal == 0 {
		s.logger.Warn("skipping empty file", zap.String("file", meta.Name))
	}

	return counter, nil
}
