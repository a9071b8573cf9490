package sharelink

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey returns a valid 32-byte collection key and its fragment encoding.
func testKey() ([]byte, string) {
	key := make([]byte, collectionKeyLen)
	for i := range key {
		key[i] = byte(i)
	}

	return key, base64.RawURLEncoding.EncodeToString(key)
}

func TestResolve_ValidLink(t *testing.T) {
	key, fragment := testKey()

	link, err := Resolve("https://albums.example.org/?t=abc123#" + fragment)
	require.NoError(t, err)
	assert.Equal(t, "abc123", link.AccessToken)
	assert.Equal(t, key, link.CollectionKey)
}

func TestResolve_PaddedFragment(t *testing.T) {
	key := make([]byte, collectionKeyLen)
	fragment := base64.URLEncoding.EncodeToString(key) // padded form

	link, err := Resolve("https://albums.example.org/?t=tok#" + fragment)
	require.NoError(t, err)
	assert.Equal(t, key, link.CollectionKey)
}

func TestResolve_Errors(t *testing.T) {
	_, fragment := testKey()

	tests := []struct {
		name string
		url  string
		want error
	}{
		{"neither part present", "https://albums.example.org/", ErrNotShareLink},
		{"only token", "https://albums.example.org/?t=abc123", ErrMalformedLink},
		{"only fragment", "https://albums.example.org/#" + fragment, ErrMalformedLink},
		{"fragment not base64", "https://albums.example.org/?t=abc#!!!not-base64!!!", ErrMalformedLink},
		{"fragment wrong length", "https://albums.example.org/?t=abc#" + fragment[:10], ErrMalformedLink},
		{"unparseable url", "://nope?t=abc#" + fragment, ErrMalformedLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := Resolve(tt.url)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, link)
		})
	}
}

func TestKeyID_Stable(t *testing.T) {
	_, fragment := testKey()

	a, err := Resolve("https://albums.example.org/?t=one#" + fragment)
	require.NoError(t, err)

	b, err := Resolve("https://albums.example.org/?t=two#" + fragment)
	require.NoError(t, err)

	assert.Equal(t, a.KeyID(), b.KeyID())
	assert.NotEmpty(t, a.KeyID())
}
