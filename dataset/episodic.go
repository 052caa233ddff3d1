package dataset

import (
	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
)

// parameterGroupWindow is the span within which successive device-parameter
// changes collapse into one rendered marker.
const parameterGroupWindow = 30 * datetime.MsInMinute

// latestByEvent deduplicates episodic records to the newest revision per
// logical event: records sharing an event id are revisions, and the one with
// the latest input time wins. Records lacking an event id count as their own
// event. Epoch order of the survivors is preserved.
func latestByEvent(records []*data.Datum) []*data.Datum {
	latest := make(map[string]*data.Datum, len(records))
	for _, d := range records {
		key := d.EventID
		if key == "" {
			key = d.ID
		}
		current, ok := latest[key]
		if !ok || newerInput(d, current) {
			latest[key] = d
		}
	}

	out := make([]*data.Datum, 0, len(latest))
	for _, d := range records {
		key := d.EventID
		if key == "" {
			key = d.ID
		}
		if latest[key] == d {
			out = append(out, d)
		}
	}
	return out
}

// newerInput compares revisions by input time, falling back to epoch when a
// revision carries none.
func newerInput(a, b *data.Datum) bool {
	if a.InputTime != "" && b.InputTime != "" {
		return a.InputTime > b.InputTime
	}
	return a.Epoch > b.Epoch
}

// groupParameters clusters sorted device-parameter records: a record within
// the group window of its group's first member joins it, otherwise it opens a
// new group.
func groupParameters(records []*data.Datum) [][]*data.Datum {
	var groups [][]*data.Datum
	for _, d := range records {
		if d.SubType != data.SubTypeDeviceParameter {
			continue
		}
		if n := len(groups); n > 0 && d.Epoch-groups[n-1][0].Epoch <= parameterGroupWindow {
			groups[n-1] = append(groups[n-1], d)
			continue
		}
		groups = append(groups, []*data.Datum{d})
	}
	return groups
}
