package credstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/album-go/internal/museum"
)

// newTestStore creates an in-memory Store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestCollectionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("miss is not an error", func(t *testing.T) {
		c, ok, err := store.Collection(ctx, "key1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, c)
	})

	t.Run("save and read back", func(t *testing.T) {
		in := &museum.Collection{
			ID:   42,
			Name: "Trip",
			PublicURLs: []museum.PublicURL{
				{PasswordEnabled: true, Nonce: "n", OpsLimit: 4, MemLimit: 1024},
			},
			SortAsc: true,
		}

		require.NoError(t, store.SaveCollection(ctx, "key1", in))

		out, ok, err := store.Collection(ctx, "key1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, in, out)
	})

	t.Run("wholesale replacement", func(t *testing.T) {
		require.NoError(t, store.SaveCollection(ctx, "key1", &museum.Collection{ID: 42, Name: "Renamed"}))

		out, ok, err := store.Collection(ctx, "key1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Renamed", out.Name)
		assert.Empty(t, out.PublicURLs)
	})
}

func TestFilesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Files(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	in := []museum.File{
		{ID: 1, Name: "a.jpg", CaptureTime: 100},
		{ID: 2, Name: "b.jpg", CaptureTime: 200},
	}

	require.NoError(t, store.SaveFiles(ctx, "tok", in))

	out, ok, err := store.Files(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, store.ClearFiles(ctx, "tok"))

	_, ok, err = store.Files(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthTokenLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.AuthToken(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveAuthToken(ctx, "tok", "jwt-1"))

	got, ok, err := store.AuthToken(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jwt-1", got)

	// Overwrite on re-verification.
	require.NoError(t, store.SaveAuthToken(ctx, "tok", "jwt-2"))

	got, _, err = store.AuthToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", got)

	// Clear is idempotent.
	require.NoError(t, store.ClearAuthToken(ctx, "tok"))
	require.NoError(t, store.ClearAuthToken(ctx, "tok"))

	_, ok, err = store.AuthToken(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReferralCodeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReferralCode(ctx, "tok", "FRIEND42"))

	code, ok, err := store.ReferralCode(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "FRIEND42", code)
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCollection(ctx, "key1", &museum.Collection{ID: 1}))
	require.NoError(t, store.SaveFiles(ctx, "tok", []museum.File{{ID: 1}}))
	require.NoError(t, store.SaveAuthToken(ctx, "tok", "jwt"))
	require.NoError(t, store.SaveReferralCode(ctx, "tok", "code"))

	require.NoError(t, store.ClearAll(ctx, "tok", "key1"))

	_, ok, err := store.Collection(ctx, "key1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Files(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.AuthToken(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.ReferralCode(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearAll_LeavesOtherLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCollection(ctx, "key1", &museum.Collection{ID: 1}))
	require.NoError(t, store.SaveCollection(ctx, "key2", &museum.Collection{ID: 2}))
	require.NoError(t, store.SaveAuthToken(ctx, "tok1", "jwt1"))
	require.NoError(t, store.SaveAuthToken(ctx, "tok2", "jwt2"))

	require.NoError(t, store.ClearAll(ctx, "tok1", "key1"))

	_, ok, err := store.Collection(ctx, "key2")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = store.AuthToken(ctx, "tok2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCorruptRowIsAMiss(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO collections (collection_key, data, updated_at) VALUES ('bad', 'not-json', 0)`)
	require.NoError(t, err)

	c, ok, err := store.Collection(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, c)
}
