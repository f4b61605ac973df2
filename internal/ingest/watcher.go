package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatch indicates a filesystem watch failure.
var ErrWatch = errors.New("failed to watch directory")

// Watcher re-ingests files as they are created or modified. It requires
// the pathhash id policy: counter ids would collide with points from the
// initial run, while pathhash ids overwrite the stale points for the
// changed file in place.
type Watcher struct {
	service *Service
	logger  *zap.Logger
}

// NewWatcher creates a watcher backed by the given service.
func NewWatcher(service *Service, logger *zap.Logger) (*Watcher, error) {
	if service.config.IDPolicy != IDPolicyPathHash {
		return nil, fmt.Errorf("%w: watch mode requires the pathhash id policy, got %q",
			ErrInvalidConfig, service.config.IDPolicy)
	}
	return &Watcher{service: service, logger: logger}, nil
}

// Watch blocks, re-ingesting matching files under dir on every write or
// create event, until ctx is canceled or the watcher fails.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWatch, dir, err)
	}

	w.logger.Info("watching for changes", zap.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("%w: event channel closed", ErrWatch)
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			count, err := w.service.IngestFile(ctx, event.Name)
			if err != nil {
				// A file can vanish or be mid-write when the event
				// arrives. Log and keep watching.
				w.logger.Error("re-ingestion failed",
					zap.String("file", event.Name), zap.Error(err))
				continue
			}
			w.logger.Info("re-ingested file",
				zap.String("file", event.Name), zap.Uint64("points", count))

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("%w: error channel closed", ErrWatch)
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) matches(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range w.service.config.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
