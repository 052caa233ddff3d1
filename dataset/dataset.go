// Package dataset holds one patient's merged device-data timeline in memory:
// the sorted record set, its per-category indexes, the resolved timezone
// timeline, background fill segments and the derived groupings the rendering
// layer consumes.
package dataset

import (
	"sort"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/normalizer"
	"github.com/tidepool-org/timeline/timezone"
)

// CategoryAll selects every record regardless of category in range queries.
const CategoryAll = "all"

// DataSet is an immutable snapshot of the held set. The engine builds a
// replacement on every ingestion and swaps it in atomically; readers never
// observe a partially built one.
type DataSet struct {
	// Data is the full record set, markers included, sorted ascending by
	// epoch.
	Data []*data.Datum

	// Grouped holds per-category sorted slices. Every required category is
	// present, as an empty slice when no records exist for it.
	Grouped map[data.Type][]*data.Datum

	// byWeekday carries independent day-of-week projections for the glucose
	// categories, keyed by the lowercase weekday of each record's resolved
	// zone.
	byWeekday map[data.Type]map[string][]*data.Datum

	// Fills are the synthetic background segments, contiguous and sorted.
	Fills []*data.Datum

	Arena    *normalizer.Arena
	Timeline timezone.Timeline

	MaxBasalDuration int64

	// Episodic groupings, deduplicated to the newest revision per event.
	PhysicalActivities []*data.Datum
	ZenEvents          []*data.Datum
	ConfidentialEvents []*data.Datum

	// ParameterGroups clusters device-parameter changes occurring close
	// together so they render as one marker.
	ParameterGroups [][]*data.Datum

	LatestPumpManufacturer string
}

func newDataSet() *DataSet {
	grouped := make(map[data.Type][]*data.Datum, len(data.RequiredTypes))
	for _, t := range data.RequiredTypes {
		grouped[t] = []*data.Datum{}
	}
	return &DataSet{
		Grouped: grouped,
		byWeekday: map[data.Type]map[string][]*data.Datum{
			data.TypeCBG:  {},
			data.TypeSMBG: {},
		},
		Arena: normalizer.NewArena(),
	}
}

// index rebuilds the per-category groups and weekday projections from Data,
// which must already be sorted.
func (ds *DataSet) index() {
	for _, t := range data.RequiredTypes {
		ds.Grouped[t] = []*data.Datum{}
	}
	ds.byWeekday = map[data.Type]map[string][]*data.Datum{
		data.TypeCBG:  {},
		data.TypeSMBG: {},
	}
	for _, d := range ds.Data {
		ds.Grouped[d.Type] = append(ds.Grouped[d.Type], d)
		if projection, ok := ds.byWeekday[d.Type]; ok {
			projection[d.LocalDayOfWeek] = append(projection[d.LocalDayOfWeek], d)
		}
	}
	if ds.Fills != nil {
		ds.Grouped[data.TypeFill] = ds.Fills
	}
}

// Range returns the records of the category starting within [start, end).
// The result is a sub-slice of the index; callers must not mutate it.
func (ds *DataSet) Range(category string, startEpoch, endEpoch int64) []*data.Datum {
	return rangeOf(ds.categoryRecords(category), startEpoch, endEpoch)
}

// RangeByWeekday is Range restricted to records whose resolved local weekday
// is one of the given lowercase names. Only the glucose categories carry
// weekday projections; other categories return nil.
func (ds *DataSet) RangeByWeekday(category data.Type, weekdays []string, startEpoch, endEpoch int64) []*data.Datum {
	projection, ok := ds.byWeekday[category]
	if !ok {
		return nil
	}
	var out []*data.Datum
	for _, weekday := range weekdays {
		out = append(out, rangeOf(projection[weekday], startEpoch, endEpoch)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Epoch < out[j].Epoch })
	return out
}

// ZoneAt returns the timezone applying at the instant per the resolved
// piecewise timeline.
func (ds *DataSet) ZoneAt(epoch int64) string {
	return ds.Timeline.ZoneAt(epoch)
}

// Extent returns the epoch span covered by diabetes data, or ok=false when
// none exists.
func (ds *DataSet) Extent() (start, end int64, ok bool) {
	for _, t := range data.DiabetesDataTypes {
		for _, d := range ds.Grouped[t] {
			if !ok || d.Epoch < start {
				start = d.Epoch
			}
			if e := d.End(); !ok || e > end {
				end = e
			}
			ok = true
		}
	}
	return start, end, ok
}

func (ds *DataSet) categoryRecords(category string) []*data.Datum {
	if category == CategoryAll || category == "" {
		return ds.Data
	}
	return ds.Grouped[data.Type(category)]
}

// rangeOf selects records starting within [start, end) from a sorted slice by
// binary search.
func rangeOf(records []*data.Datum, startEpoch, endEpoch int64) []*data.Datum {
	lo := sort.Search(len(records), func(i int) bool { return records[i].Epoch >= startEpoch })
	hi := sort.Search(len(records), func(i int) bool { return records[i].Epoch >= endEpoch })
	return records[lo:hi]
}

func sortByEpoch(records []*data.Datum) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Epoch != records[j].Epoch {
			return records[i].Epoch < records[j].Epoch
		}
		return records[i].ID < records[j].ID
	})
}
