package album

import (
	"cmp"
	"slices"

	"github.com/tonimelisma/album-go/internal/museum"
)

// sortFilesForCollection returns the files ordered by capture time
// (modification time when capture time is unknown), ascending or descending
// per the collection's ordering preference. Newest first when no preference
// is stored. The input slice is not modified.
func sortFilesForCollection(files []museum.File, collection *museum.Collection) []museum.File {
	asc := collection != nil && collection.SortAsc

	sorted := append([]museum.File(nil), files...)

	slices.SortStableFunc(sorted, func(a, b museum.File) int {
		d := cmp.Compare(a.SortTime(), b.SortTime())
		if d == 0 {
			// Equal timestamps: fall back to ID so the order is deterministic.
			d = cmp.Compare(a.ID, b.ID)
		}

		if asc {
			return d
		}

		return -d
	})

	return sorted
}
