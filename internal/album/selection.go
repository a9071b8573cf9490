package album

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tonimelisma/album-go/internal/museum"
)

// SelectionState summarizes the current selection for rendering. Ephemeral
// and session-scoped: reset whenever the selection is cleared or the files
// change identity.
type SelectionState struct {
	SelectedCount      int
	OwnedCount         int
	ActiveCollectionID int64
	Context            string
}

// Coordinator tracks which files are selected and drives batch downloads
// over the engine's current listing. Downloads are best-effort: failures
// are logged and visible in the progress tracker, never surfaced as
// blocking errors.
type Coordinator struct {
	engine     *Engine
	downloader Downloader
	progress   *ProgressTracker
	logger     *slog.Logger
	workers    int

	mu       sync.Mutex
	selected map[int64]bool
	state    SelectionState
}

// defaultDownloadWorkers bounds per-batch download concurrency.
const defaultDownloadWorkers = 4

// NewCoordinator creates a coordinator over the given engine and download
// primitive. workers <= 0 selects the default.
func NewCoordinator(engine *Engine, downloader Downloader, progress *ProgressTracker, workers int, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	if workers <= 0 {
		workers = defaultDownloadWorkers
	}

	return &Coordinator{
		engine:     engine,
		downloader: downloader,
		progress:   progress,
		logger:     logger,
		workers:    workers,
		selected:   make(map[int64]bool),
	}
}

// Select adds the given file IDs to the selection.
func (c *Coordinator) Select(collectionID int64, fileIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range fileIDs {
		c.selected[id] = true
	}

	c.state.SelectedCount = len(c.selected)
	c.state.ActiveCollectionID = collectionID
}

// Deselect removes the given file IDs from the selection.
func (c *Coordinator) Deselect(fileIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range fileIDs {
		delete(c.selected, id)
	}

	c.state.SelectedCount = len(c.selected)
}

// Selection returns the current selection summary.
func (c *Coordinator) Selection() SelectionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// ClearSelection resets the selection. Idempotent: a second call with an
// already-empty selection is a no-op.
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.selected) == 0 && c.state == (SelectionState{}) {
		return
	}

	c.selected = make(map[int64]bool)
	c.state = SelectionState{}
}

// selectedFiles snapshots the currently selected files out of the engine's
// listing, in listing order.
func (c *Coordinator) selectedFiles() []museum.File {
	files := c.engine.Files()

	c.mu.Lock()
	defer c.mu.Unlock()

	picked := make([]museum.File, 0, len(c.selected))

	for _, f := range files {
		if c.selected[f.ID] {
			picked = append(picked, f)
		}
	}

	return picked
}

// DownloadSelected snapshots the selected files, runs one batch download
// for them, and clears the selection. Both success and partial failure
// clear the selection; progress is visible in the tracker. Returns the
// progress entry ID, or empty when nothing was selected.
func (c *Coordinator) DownloadSelected(ctx context.Context, destDir string) string {
	files := c.selectedFiles()
	if len(files) == 0 {
		return ""
	}

	collection := c.engine.Collection()

	var collectionID int64

	isHidden := false
	if collection != nil {
		collectionID = collection.ID
		isHidden = collection.IsHidden()
	}

	label := fmt.Sprintf("%d files", len(files))
	entryID := c.runBatch(ctx, files, label, collectionID, isHidden, destDir)

	c.ClearSelection()

	return entryID
}

// DownloadAll runs one batch download over the entire current listing,
// labeled with the collection name.
func (c *Coordinator) DownloadAll(ctx context.Context, destDir string) string {
	files := c.engine.Files()
	if len(files) == 0 {
		return ""
	}

	collection := c.engine.Collection()

	label := "album"

	var collectionID int64

	isHidden := false
	if collection != nil {
		label = collection.Name
		collectionID = collection.ID
		isHidden = collection.IsHidden()
	}

	return c.runBatch(ctx, files, label, collectionID, isHidden, destDir)
}
