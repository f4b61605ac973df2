package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectorium/internal/vectorstore"
)

// ErrUpsert indicates the vector index rejected a batch write.
var ErrUpsert = errors.New("failed to upsert points")

// Upserter writes a batch of points to the vector index in one call.
type Upserter interface {
	Upsert(ctx context.Context, points []vectorstore.Point) error
}

// Dispatcher accumulates points into a bounded buffer and flushes them to
// the vector index. Add triggers an implicit flush when the buffer reaches
// the configured batch size; the orchestrator calls Flush once more after
// the input stream is exhausted.
//
// Not safe for concurrent use: the buffer belongs to a single ingestion run.
type Dispatcher struct {
	upserter  Upserter
	batchSize int
	buf       []vectorstore.Point
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher flushing at most batchSize points per call.
func NewDispatcher(upserter Upserter, batchSize int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		upserter:  upserter,
		batchSize: batchSize,
		buf:       make([]vectorstore.Point, 0, batchSize),
		logger:    logger,
	}
}

// Add appends a point to the buffer and triggers an implicit flush once
// the buffer reaches the batch size. On a failed flush the buffer keeps
// every point, including p, so retrying Flush loses nothing.
func (d *Dispatcher) Add(ctx context.Context, p vectorstore.Point) error {
	d.buf = append(d.buf, p)
	if len(d.buf) >= d.batchSize {
		return d.Flush(ctx)
	}
	return nil
}

// Flush sends the buffered points to the index in one call and clears the
// buffer only on success; on failure the buffer is left intact so the same
// flush can be retried. Flushing an empty buffer is a no-op.
func (d *Dispatcher) Flush(ctx context.Context) error {
	if len(d.buf) == 0 {
		return nil
	}

	d.logger.Debug("flushing batch", zap.Int("points", len(d.buf)))

	if err := d.upserter.Upsert(ctx, d.buf); err != nil {
		return fmt.Errorf("%w: %v", ErrUpsert, err)
	}

	d.buf = d.buf[:0]
	return nil
}

// Pending returns the number of buffered points awaiting a flush.
func (d *Dispatcher) Pending() int {
	return len(d.buf)
}
