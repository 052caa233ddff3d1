package dataset

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tidepool-org/timeline/data"
)

// merge concatenates incoming before existing and keeps the first occurrence
// of every id, so a re-sent record replaces its stored version. Returns the
// merged set, unsorted, and the count of ids not previously held.
func merge(incoming, existing []*data.Datum) ([]*data.Datum, int) {
	seen := mapset.NewThreadUnsafeSet[string]()
	held := mapset.NewThreadUnsafeSet[string]()
	for _, d := range existing {
		held.Add(d.ID)
	}

	merged := make([]*data.Datum, 0, len(incoming)+len(existing))
	added := 0
	for _, d := range incoming {
		// Records arriving without an id cannot collide; normalization
		// assigns them one.
		if d.ID == "" {
			added++
			merged = append(merged, d)
			continue
		}
		if !seen.Add(d.ID) {
			continue
		}
		if !held.Contains(d.ID) {
			added++
		}
		merged = append(merged, d)
	}
	for _, d := range existing {
		if seen.Add(d.ID) {
			merged = append(merged, d)
		}
	}
	return merged, added
}
