package museum

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// publicURLResponse mirrors the public URL block of the API response.
// Unexported — callers use PublicURL via toPublicURL() normalization.
type publicURLResponse struct {
	URL             string `json:"url"`
	DeviceLimit     int    `json:"deviceLimit"`
	ValidTill       int64  `json:"validTill"`
	EnableDownload  *bool  `json:"enableDownload"`
	EnableCollect   bool   `json:"enableCollect"`
	EnableJoin      bool   `json:"enableJoin"`
	PasswordEnabled bool   `json:"passwordEnabled"`
	Nonce           string `json:"nonce"`
	OpsLimit        uint32 `json:"opsLimit"`
	MemLimit        uint32 `json:"memLimit"`
}

// toPublicURL normalizes a public URL response. Download is enabled when
// the server omits the flag (older links predate it).
func (p *publicURLResponse) toPublicURL() PublicURL {
	enableDownload := true
	if p.EnableDownload != nil {
		enableDownload = *p.EnableDownload
	}

	return PublicURL{
		URL:             p.URL,
		DeviceLimit:     p.DeviceLimit,
		ValidTill:       p.ValidTill,
		EnableDownload:  enableDownload,
		EnableCollect:   p.EnableCollect,
		EnableJoin:      p.EnableJoin,
		PasswordEnabled: p.PasswordEnabled,
		Nonce:           p.Nonce,
		OpsLimit:        p.OpsLimit,
		MemLimit:        p.MemLimit,
	}
}

// collectionResponse mirrors the collection block of the info response.
type collectionResponse struct {
	ID               int64               `json:"id"`
	Owner            ownerResponse       `json:"owner"`
	Name             string              `json:"name"`
	Type             string              `json:"type"`
	PublicURLs       []publicURLResponse `json:"publicURLs"`
	UpdationTime     int64               `json:"updationTime"`
	PubMagicMetadata *pubMagicMetadata   `json:"pubMagicMetadata"`
}

type ownerResponse struct {
	ID int64 `json:"id"`
}

// pubMagicMetadata carries sharer preferences attached to the collection.
type pubMagicMetadata struct {
	Data struct {
		Asc bool `json:"asc"`
	} `json:"data"`
}

// toCollection normalizes a collection response into our Collection type.
func (r *collectionResponse) toCollection() *Collection {
	urls := make([]PublicURL, 0, len(r.PublicURLs))
	for i := range r.PublicURLs {
		urls = append(urls, r.PublicURLs[i].toPublicURL())
	}

	sortAsc := false
	if r.PubMagicMetadata != nil {
		sortAsc = r.PubMagicMetadata.Data.Asc
	}

	return &Collection{
		ID:           r.ID,
		OwnerID:      r.Owner.ID,
		Name:         r.Name,
		Type:         r.Type,
		PublicURLs:   urls,
		UpdationTime: r.UpdationTime,
		SortAsc:      sortAsc,
	}
}

// infoResponse wraps the GET /public-collection/info payload.
type infoResponse struct {
	Collection   collectionResponse `json:"collection"`
	ReferralCode string             `json:"referralCode"`
}

// CollectionInfo fetches the collection metadata for the link identified by
// the credentials' access token, along with the sharer's referral code.
// HTTP 401 means the link is invalid, 410 that it has been revoked, and
// 429 that it has exceeded its request limit — all surfaced as sentinels.
func (c *Client) CollectionInfo(ctx context.Context, creds Credentials) (*Collection, string, error) {
	c.logger.Info("fetching public collection info")

	resp, err := c.Do(ctx, http.MethodGet, "/public-collection/info", creds, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var ir infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, "", fmt.Errorf("museum: decoding collection info: %w", err)
	}

	collection := ir.Collection.toCollection()

	c.logger.Debug("fetched public collection info",
		slog.Int64("collection_id", collection.ID),
		slog.Bool("password_enabled", collection.IsPasswordProtected()),
		slog.Int("public_urls", len(collection.PublicURLs)),
	)

	return collection, ir.ReferralCode, nil
}
