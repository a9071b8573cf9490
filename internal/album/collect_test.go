package album

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/album-go/internal/museum"
)

// fakeUploader records uploads and signals each one on a channel.
type fakeUploader struct {
	mu       sync.Mutex
	paths    []string
	failures int // fail this many uploads before succeeding
	uploaded chan string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(chan string, 16)}
}

func (u *fakeUploader) Upload(_ context.Context, _ *museum.Collection, path string) (museum.File, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.failures > 0 {
		u.failures--

		return museum.File{}, assert.AnError
	}

	u.paths = append(u.paths, path)
	id := int64(len(u.paths))

	u.uploaded <- path

	return museum.File{ID: id, Name: filepath.Base(path), CaptureTime: id * 100}, nil
}

// collectEngine builds an engine whose cached collection has collect
// enabled.
func collectEngine(t *testing.T) *Engine {
	t.Helper()

	engine, store, link := newTestEngine(t, &fakeRemote{})

	collection := &museum.Collection{
		ID:   42,
		Name: "Trip",
		PublicURLs: []museum.PublicURL{{
			EnableDownload: true,
			EnableCollect:  true,
		}},
	}

	require.NoError(t, store.SaveCollection(context.Background(), link.KeyID(), collection))
	engine.Restore(context.Background())

	return engine
}

// startWatcher runs Watch in the background with a short debounce and
// returns the watched directory.
func startWatcher(t *testing.T, engine *Engine, uploader Uploader) string {
	t.Helper()

	w := NewCollectWatcher(engine, uploader, testLogger())
	w.debounce = 50 * time.Millisecond

	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- w.Watch(ctx, dir)
	}()

	// Give the watcher goroutine time to establish its filesystem watch
	// before the test writes files; otherwise the create event is missed.
	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	return dir
}

func waitForUpload(t *testing.T, uploader *fakeUploader) string {
	t.Helper()

	select {
	case path := <-uploader.uploaded:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for upload")

		return ""
	}
}

func TestWatch_CollectDisabled(t *testing.T) {
	t.Run("no collection loaded", func(t *testing.T) {
		engine, _, _ := newTestEngine(t, &fakeRemote{})
		w := NewCollectWatcher(engine, newFakeUploader(), testLogger())

		err := w.Watch(context.Background(), t.TempDir())
		assert.ErrorIs(t, err, ErrCollectDisabled)
	})

	t.Run("collect not enabled on link", func(t *testing.T) {
		remote := &fakeRemote{
			infoFunc: func(_ context.Context, _ museum.Credentials) (*museum.Collection, string, error) {
				return openCollection(), "", nil
			},
		}

		engine, _, _ := newTestEngine(t, remote)
		require.NoError(t, engine.Pull(context.Background()))

		w := NewCollectWatcher(engine, newFakeUploader(), testLogger())

		err := w.Watch(context.Background(), t.TempDir())
		assert.ErrorIs(t, err, ErrCollectDisabled)
	})
}

func TestWatch_UploadsSettledFile(t *testing.T) {
	engine := collectEngine(t)
	uploader := newFakeUploader()
	dir := startWatcher(t, engine, uploader)

	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))

	uploadedPath := waitForUpload(t, uploader)
	assert.Equal(t, path, uploadedPath)

	// The uploaded file lands in the engine's listing.
	require.Eventually(t, func() bool {
		return len(engine.Files()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "photo.jpg", engine.Files()[0].Name)
}

func TestWatch_SkipsDotfiles(t *testing.T) {
	engine := collectEngine(t)
	uploader := newFakeUploader()
	dir := startWatcher(t, engine, uploader)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.jpg"), []byte("x"), 0o600))

	uploadedPath := waitForUpload(t, uploader)
	assert.Equal(t, filepath.Join(dir, "visible.jpg"), uploadedPath)

	// Only the visible file was uploaded.
	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	assert.Len(t, uploader.paths, 1)
}

func TestWatch_RetriesFailedUpload(t *testing.T) {
	engine := collectEngine(t)
	uploader := newFakeUploader()
	uploader.failures = 1

	dir := startWatcher(t, engine, uploader)

	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))

	// First attempt fails, a later tick retries and succeeds.
	uploadedPath := waitForUpload(t, uploader)
	assert.Equal(t, path, uploadedPath)
}

func TestWatch_RemovedFileIsNotUploaded(t *testing.T) {
	engine := collectEngine(t)
	uploader := newFakeUploader()
	dir := startWatcher(t, engine, uploader)

	path := filepath.Join(dir, "fleeting.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Remove(path))

	// Give the watcher several debounce windows to (incorrectly) upload.
	time.Sleep(300 * time.Millisecond)

	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	assert.Empty(t, uploader.paths)
}
