package album

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/tonimelisma/album-go/internal/museum"
)

// Downloader is the external per-file download primitive. Implementations
// own streaming, decryption, and atomic placement of the file at destPath.
type Downloader interface {
	DownloadFile(ctx context.Context, f museum.File, destPath string) error
}

// runBatch executes one batch download: creates a progress entry, fans the
// files out over a bounded worker pool, and counts outcomes on the entry.
// Cancellation is cooperative via the entry's stored cancel function and
// affects only this batch. Individual failures are logged and counted,
// never propagated.
func (c *Coordinator) runBatch(
	ctx context.Context, files []museum.File,
	label string, collectionID int64, isHidden bool, destDir string,
) string {
	handle := c.progress.Create(label, collectionID, isHidden)

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	handle.Update(func(e DownloadProgressEntry) DownloadProgressEntry {
		e.Total = len(files)
		e.Cancel = cancel
		e.DestinationPath = destDir
		return e
	})

	c.logger.Info("starting batch download",
		slog.String("label", label),
		slog.Int("count", len(files)),
		slog.Int("workers", c.workers),
	)

	g, gctx := errgroup.WithContext(batchCtx)
	g.SetLimit(c.workers)

	for _, f := range files {
		g.Go(func() error {
			err := c.downloadOne(gctx, f, destDir)

			handle.Update(func(e DownloadProgressEntry) DownloadProgressEntry {
				if err != nil {
					e.Failed++
				} else {
					e.Success++
				}
				return e
			})

			if err != nil {
				c.logger.Warn("file download failed",
					slog.Int64("file_id", f.ID),
					slog.String("error", err.Error()),
				)
			}

			// Always nil: one bad file must not abort the batch.
			return nil
		})
	}

	_ = g.Wait()

	entry, _ := c.progress.Get(handle.ID())
	c.logger.Info("batch download finished",
		slog.String("label", label),
		slog.Int("success", entry.Success),
		slog.Int("failed", entry.Failed),
	)

	return handle.ID()
}

// downloadOne resolves the destination path for a single file and hands it
// to the download primitive.
func (c *Coordinator) downloadOne(ctx context.Context, f museum.File, destDir string) error {
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	name := sanitizeFileName(f.Name)
	if name == "" {
		name = fmt.Sprintf("file-%d", f.ID)
	}

	return c.downloader.DownloadFile(ctx, f, filepath.Join(destDir, name))
}

// sanitizeFileName NFC-normalizes a remote file name and strips characters
// that are path separators or otherwise unsafe in a local file name.
func sanitizeFileName(name string) string {
	name = norm.NFC.String(name)

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '\x00':
			return '_'
		default:
			if r < 0x20 {
				return '_'
			}
			return r
		}
	}, name)

	return strings.Trim(strings.TrimSpace(name), ".")
}

// RemoteDownloader adapts the museum client's raw payload download to the
// Downloader interface. It holds its own copy of the current credentials,
// refreshed through the engine's observer notifications, so it never shares
// mutable credential state with the engine.
type RemoteDownloader struct {
	client *museum.Client

	mu    sync.Mutex
	creds museum.Credentials
}

// NewRemoteDownloader creates a downloader over the given client. Register
// it with Engine.AddCredentialsObserver to keep its credentials current.
func NewRemoteDownloader(client *museum.Client) *RemoteDownloader {
	return &RemoteDownloader{client: client}
}

// SetCredentials implements CredentialsObserver.
func (d *RemoteDownloader) SetCredentials(creds museum.Credentials) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.creds = creds
}

// DownloadFile implements Downloader by streaming the file payload to a
// temporary file and renaming it into place on success.
func (d *RemoteDownloader) DownloadFile(ctx context.Context, f museum.File, destPath string) error {
	d.mu.Lock()
	creds := d.creds
	d.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".album-dl-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := d.client.DownloadFile(ctx, creds, f.ID, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("moving file into place: %w", err)
	}

	return nil
}
