// Package sharelink parses public album share URLs into their collection
// key and access token.
package sharelink

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// collectionKeyLen is the decoded length of the collection key embedded in
// the URL fragment.
const collectionKeyLen = 32

// ErrNotShareLink indicates the URL carries neither an access token nor a
// collection key — it is some other page entirely. Callers redirect to the
// landing site.
var ErrNotShareLink = errors.New("sharelink: not a share link")

// ErrMalformedLink indicates the URL looks like a share link but is missing
// or corrupting one of its two parts. Callers abort without rendering.
var ErrMalformedLink = errors.New("sharelink: malformed share link")

// ShareLink is the parsed form of a public album URL. Immutable once
// resolved; invalid links never produce one.
type ShareLink struct {
	// CollectionKey is the key embedded in the URL fragment. It never
	// travels to the server.
	CollectionKey []byte

	// AccessToken proves possession of the link to the server.
	AccessToken string
}

// KeyID returns a stable string form of the collection key, used to key
// local caches.
func (l *ShareLink) KeyID() string {
	return base64.RawURLEncoding.EncodeToString(l.CollectionKey)
}

// Resolve parses a share URL. The access token is the "t" query parameter;
// the collection key is the base64url-encoded URL fragment. The fragment
// stays client-side, so possession of the access token alone never reveals
// the key.
func Resolve(rawURL string) (*ShareLink, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ErrMalformedLink
	}

	token := u.Query().Get("t")
	fragment := u.Fragment

	if token == "" && fragment == "" {
		return nil, ErrNotShareLink
	}

	if token == "" || fragment == "" {
		return nil, ErrMalformedLink
	}

	key, err := decodeCollectionKey(fragment)
	if err != nil {
		return nil, ErrMalformedLink
	}

	return &ShareLink{CollectionKey: key, AccessToken: token}, nil
}

// decodeCollectionKey decodes the fragment, accepting both raw and padded
// base64url (older links padded).
func decodeCollectionKey(fragment string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(fragment, "="))
	if err != nil {
		return nil, err
	}

	if len(key) != collectionKeyLen {
		return nil, errors.New("unexpected key length")
	}

	return key, nil
}
