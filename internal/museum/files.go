package museum

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// fileResponse mirrors one file record in the diff response.
type fileResponse struct {
	ID           int64  `json:"id"`
	CollectionID int64  `json:"collectionID"`
	OwnerID      int64  `json:"ownerID"`
	IsDeleted    bool   `json:"isDeleted"`
	UpdationTime int64  `json:"updationTime"`
	Info         *struct {
		FileName     string `json:"fileName"`
		FileSize     int64  `json:"fileSize"`
		CreationTime int64  `json:"creationTime"`
		ModifiedTime int64  `json:"modificationTime"`
	} `json:"info"`
}

// toFile normalizes a file response into our File type. Deleted records
// (tombstones) carry no info block.
func (r *fileResponse) toFile() File {
	f := File{
		ID:           r.ID,
		CollectionID: r.CollectionID,
		OwnerID:      r.OwnerID,
		IsDeleted:    r.IsDeleted,
		UpdationTime: r.UpdationTime,
	}

	if r.Info != nil {
		f.Name = r.Info.FileName
		f.Size = r.Info.FileSize
		f.CaptureTime = r.Info.CreationTime
		f.ModifiedTime = r.Info.ModifiedTime
	}

	return f
}

// diffResponse wraps the GET /public-collection/diff payload.
type diffResponse struct {
	Diff    []fileResponse `json:"diff"`
	HasMore bool           `json:"hasMore"`
}

// Diff fetches one page of file changes since the given updation time.
// Pass zero for the initial pull (fetches all files). Tombstones for
// deleted files are included in the returned slice.
func (c *Client) Diff(ctx context.Context, creds Credentials, sinceTime int64) ([]File, bool, error) {
	path := "/public-collection/diff?sinceTime=" + strconv.FormatInt(sinceTime, 10)

	resp, err := c.Do(ctx, http.MethodGet, path, creds, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	var dr diffResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, false, fmt.Errorf("museum: decoding diff response: %w", err)
	}

	files := make([]File, 0, len(dr.Diff))
	for i := range dr.Diff {
		files = append(files, dr.Diff[i].toFile())
	}

	c.logger.Debug("fetched diff page",
		slog.Int64("since_time", sinceTime),
		slog.Int("count", len(files)),
		slog.Bool("has_more", dr.HasMore),
	)

	return files, dr.HasMore, nil
}

// PullFiles fetches all file changes since the newest record in base,
// reconciling each page into the base listing: new and updated records
// replace old ones by ID, tombstones remove them. onBatch, if non-nil, is
// invoked with the merged listing after every page so callers can render
// progressively. Returns the final merged listing.
func (c *Client) PullFiles(ctx context.Context, creds Credentials, base []File, onBatch func([]File)) ([]File, error) {
	byID := make(map[int64]File, len(base))

	var sinceTime int64

	for _, f := range base {
		byID[f.ID] = f
		if f.UpdationTime > sinceTime {
			sinceTime = f.UpdationTime
		}
	}

	c.logger.Info("pulling public collection files",
		slog.Int("cached_count", len(base)),
		slog.Int64("since_time", sinceTime),
	)

	pages := 0

	for {
		diff, hasMore, err := c.Diff(ctx, creds, sinceTime)
		if err != nil {
			return nil, err
		}

		pages++

		for _, f := range diff {
			if f.UpdationTime > sinceTime {
				sinceTime = f.UpdationTime
			}

			if f.IsDeleted {
				delete(byID, f.ID)
				continue
			}

			byID[f.ID] = f
		}

		files := make([]File, 0, len(byID))
		for _, f := range byID {
			files = append(files, f)
		}

		if onBatch != nil {
			onBatch(files)
		}

		if !hasMore {
			c.logger.Info("file pull complete",
				slog.Int("total_count", len(files)),
				slog.Int("pages", pages),
			)

			return files, nil
		}
	}
}
