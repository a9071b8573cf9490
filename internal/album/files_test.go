package album

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonimelisma/album-go/internal/museum"
)

func TestSortFilesForCollection(t *testing.T) {
	files := []museum.File{
		{ID: 1, CaptureTime: 200},
		{ID: 2, CaptureTime: 100},
		{ID: 3, CaptureTime: 300},
	}

	t.Run("descending by default", func(t *testing.T) {
		sorted := sortFilesForCollection(files, &museum.Collection{})

		assert.Equal(t, []int64{3, 1, 2}, ids(sorted))
	})

	t.Run("nil collection is descending", func(t *testing.T) {
		sorted := sortFilesForCollection(files, nil)

		assert.Equal(t, []int64{3, 1, 2}, ids(sorted))
	})

	t.Run("ascending when the collection prefers it", func(t *testing.T) {
		sorted := sortFilesForCollection(files, &museum.Collection{SortAsc: true})

		assert.Equal(t, []int64{2, 1, 3}, ids(sorted))
	})

	t.Run("input is not modified", func(t *testing.T) {
		_ = sortFilesForCollection(files, &museum.Collection{})

		assert.Equal(t, []int64{1, 2, 3}, ids(files))
	})
}

func TestSortFilesForCollection_Tiebreak(t *testing.T) {
	files := []museum.File{
		{ID: 5, CaptureTime: 100},
		{ID: 2, CaptureTime: 100},
		{ID: 9, CaptureTime: 100},
	}

	asc := sortFilesForCollection(files, &museum.Collection{SortAsc: true})
	assert.Equal(t, []int64{2, 5, 9}, ids(asc))

	desc := sortFilesForCollection(files, &museum.Collection{})
	assert.Equal(t, []int64{9, 5, 2}, ids(desc))
}

func TestSortFilesForCollection_ModifiedTimeFallback(t *testing.T) {
	files := []museum.File{
		{ID: 1, CaptureTime: 200},
		{ID: 2, ModifiedTime: 300}, // no capture time recorded
	}

	sorted := sortFilesForCollection(files, &museum.Collection{})
	assert.Equal(t, []int64{2, 1}, ids(sorted))
}

func ids(files []museum.File) []int64 {
	out := make([]int64, len(files))
	for i, f := range files {
		out[i] = f.ID
	}

	return out
}
