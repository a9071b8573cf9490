package museum

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// DownloadFile streams the payload of a file to the given writer.
// The payload is the stored blob as-is; any decryption is the caller's
// concern. Returns the number of bytes written.
func (c *Client) DownloadFile(ctx context.Context, creds Credentials, fileID int64, w io.Writer) (int64, error) {
	c.logger.Info("downloading file", slog.Int64("file_id", fileID))

	path := "/public-collection/files/download/" + strconv.FormatInt(fileID, 10)

	resp, err := c.Do(ctx, http.MethodGet, path, creds, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("museum: streaming file %d: %w", fileID, err)
	}

	c.logger.Debug("downloaded file",
		slog.Int64("file_id", fileID),
		slog.Int64("bytes", n),
	)

	return n, nil
}
