package album

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// DownloadProgressEntry tracks one in-flight batch download. Entries are
// identified by their own ID so concurrent downloads never block or
// overwrite each other.
type DownloadProgressEntry struct {
	ID                 string
	Label              string
	CollectionID       int64
	IsHiddenCollection bool
	Total              int
	Success            int
	Failed             int
	Cancel             context.CancelFunc
	DestinationPath    string
}

// Done reports whether every file in the batch has been accounted for.
func (e *DownloadProgressEntry) Done() bool {
	return e.Total > 0 && e.Success+e.Failed >= e.Total
}

// ProgressTracker is a keyed registry of in-flight batch downloads.
// Entries are never removed automatically — removal is an explicit
// external action. No ordering guarantee among entries.
type ProgressTracker struct {
	mu      sync.Mutex
	entries map[string]DownloadProgressEntry
}

// NewProgressTracker creates an empty tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{entries: make(map[string]DownloadProgressEntry)}
}

// ProgressHandle updates one entry in the tracker, either by wholesale
// replacement or by a functional update from the current value.
type ProgressHandle struct {
	tracker *ProgressTracker
	id      string
}

// Create registers a fresh entry and returns its handle.
func (pt *ProgressTracker) Create(label string, collectionID int64, isHidden bool) *ProgressHandle {
	id := uuid.New().String()

	pt.mu.Lock()
	pt.entries[id] = DownloadProgressEntry{
		ID:                 id,
		Label:              label,
		CollectionID:       collectionID,
		IsHiddenCollection: isHidden,
	}
	pt.mu.Unlock()

	return &ProgressHandle{tracker: pt, id: id}
}

// ID returns the entry's identifier.
func (h *ProgressHandle) ID() string {
	return h.id
}

// Set replaces the entry wholesale. The ID field is pinned to the handle's
// entry regardless of the value passed in.
func (h *ProgressHandle) Set(entry DownloadProgressEntry) {
	h.tracker.mu.Lock()
	defer h.tracker.mu.Unlock()

	entry.ID = h.id
	h.tracker.entries[h.id] = entry
}

// Update applies a functional update to the current entry value.
func (h *ProgressHandle) Update(fn func(DownloadProgressEntry) DownloadProgressEntry) {
	h.tracker.mu.Lock()
	defer h.tracker.mu.Unlock()

	entry := fn(h.tracker.entries[h.id])
	entry.ID = h.id
	h.tracker.entries[h.id] = entry
}

// Get returns the entry for the given ID.
func (pt *ProgressTracker) Get(id string) (DownloadProgressEntry, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	entry, ok := pt.entries[id]

	return entry, ok
}

// Entries returns a snapshot of all entries.
func (pt *ProgressTracker) Entries() []DownloadProgressEntry {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	entries := make([]DownloadProgressEntry, 0, len(pt.entries))
	for _, e := range pt.entries {
		entries = append(entries, e)
	}

	return entries
}

// Remove deletes an entry. Explicit external action, typically the user
// dismissing a finished download.
func (pt *ProgressTracker) Remove(id string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	delete(pt.entries, id)
}
