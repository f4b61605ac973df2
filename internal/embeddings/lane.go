package embeddings

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// Lane runs a Provider's blocking calls on a dedicated worker goroutine.
//
// Embedding is CPU/GPU-bound and can block for seconds (model load plus
// inference). Dispatching through a single-worker pool keeps that work
// off the caller's goroutine so unrelated activity in the process is not
// starved, while callers still await the result before proceeding. The
// single worker also serializes access to providers that are not safe
// for concurrent inference.
type Lane struct {
	provider Provider
	pool     *ants.Pool
}

// NewLane wraps a provider in a dedicated embedding worker lane.
func NewLane(provider Provider) (*Lane, error) {
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("creating embedding worker pool: %w", err)
	}
	return &Lane{
		provider: provider,
		pool:     pool,
	}, nil
}

type embedResult struct {
	vectors [][]float32
	err     error
}

// EmbedDocuments dispatches a batch embedding call to the worker lane
// and awaits its completion. Context cancellation abandons the wait;
// the worker still finishes the in-flight call.
func (l *Lane) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	ch := make(chan embedResult, 1)
	err := l.pool.Submit(func() {
		vectors, err := l.provider.EmbedDocuments(ctx, texts)
		ch <- embedResult{vectors: vectors, err: err}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: submitting to worker lane: %v", ErrEmbeddingFailed, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.vectors, res.err
	}
}

// EmbedQuery dispatches a single query embedding to the worker lane.
func (l *Lane) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	ch := make(chan embedResult, 1)
	err := l.pool.Submit(func() {
		vector, err := l.provider.EmbedQuery(ctx, text)
		if err != nil {
			ch <- embedResult{err: err}
			return
		}
		ch <- embedResult{vectors: [][]float32{vector}}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: submitting to worker lane: %v", ErrEmbeddingFailed, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.vectors[0], nil
	}
}

// Dimension returns the wrapped provider's dimension.
func (l *Lane) Dimension() int {
	return l.provider.Dimension()
}

// Close releases the worker pool and the wrapped provider.
func (l *Lane) Close() error {
	l.pool.Release()
	return l.provider.Close()
}

// Lane implements Provider so it can be dropped in wherever one is expected.
var _ Provider = (*Lane)(nil)
