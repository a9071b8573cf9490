package album

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tonimelisma/album-go/internal/museum"
)

// Uploader is the external upload subsystem. Implementations own the wire
// protocol and encryption; the watcher only decides when to invoke them
// and folds the results back into the listing.
type Uploader interface {
	Upload(ctx context.Context, collection *museum.Collection, path string) (museum.File, error)
}

// ErrCollectDisabled is returned when the link does not allow visitors to
// add photos.
var ErrCollectDisabled = errors.New("album: link does not allow adding photos")

// collectDebounce is how long a file must sit quietly before it is
// considered fully written and handed to the uploader.
const collectDebounce = 2 * time.Second

// CollectWatcher watches a local inbox directory and uploads new files to
// a collect-enabled album. Each successful upload is folded into the
// engine's listing via OnUploadFile.
type CollectWatcher struct {
	engine   *Engine
	uploader Uploader
	logger   *slog.Logger

	// debounce is overridable for tests.
	debounce time.Duration
}

// NewCollectWatcher creates a watcher bound to the given engine and
// uploader.
func NewCollectWatcher(engine *Engine, uploader Uploader, logger *slog.Logger) *CollectWatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &CollectWatcher{
		engine:   engine,
		uploader: uploader,
		logger:   logger,
		debounce: collectDebounce,
	}
}

// Watch observes dir until the context is canceled, uploading each file
// that appears and settles. Fails up front when the collection does not
// have collect enabled.
func (w *CollectWatcher) Watch(ctx context.Context, dir string) error {
	collection := w.engine.Collection()
	if collection == nil || !collection.CollectEnabled() {
		return ErrCollectDisabled
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	w.logger.Info("watching for photos to add",
		slog.String("dir", dir),
		slog.Int64("collection_id", collection.ID),
	)

	// Paths pending upload, keyed to the time of their last event.
	pending := make(map[string]time.Time)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			w.handleEvent(event, pending)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watcher error", slog.String("error", watchErr.Error()))

		case <-ticker.C:
			w.uploadSettled(ctx, collection, pending)
		}
	}
}

// handleEvent records create and write events for regular-looking files.
func (w *CollectWatcher) handleEvent(event fsnotify.Event, pending map[string]time.Time) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		// Removes and renames drop any pending upload for the path.
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			delete(pending, event.Name)
		}

		return
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	pending[event.Name] = time.Now()
}

// uploadSettled uploads every pending file whose last event is older than
// the debounce window. Upload failures are logged and the file retried on
// a later tick.
func (w *CollectWatcher) uploadSettled(ctx context.Context, collection *museum.Collection, pending map[string]time.Time) {
	now := time.Now()

	for path, last := range pending {
		if now.Sub(last) < w.debounce {
			continue
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			delete(pending, path)
			continue
		}

		file, err := w.uploader.Upload(ctx, collection, path)
		if err != nil {
			w.logger.Warn("upload failed, will retry",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)

			pending[path] = now

			continue
		}

		delete(pending, path)
		w.engine.OnUploadFile(file)

		w.logger.Info("uploaded file into album",
			slog.String("path", path),
			slog.Int64("file_id", file.ID),
		)
	}
}
