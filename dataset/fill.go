package dataset

import (
	"time"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
	"github.com/tidepool-org/timeline/timezone"
)

// fillLeadIn extends the fill walk before the first diabetes record so the
// chart has shaded background when panned slightly left.
const fillLeadIn = 3 * time.Hour

// generateFills walks the covered span hour by hour in the resolved local
// calendar and opens a segment at every classed local hour. Each segment ends
// where the next begins, so segments stay contiguous across zone and DST
// changes even when a classed hour is skipped or repeated.
func generateFills(classes map[int]string, startEpoch, endEpoch int64, tl timezone.Timeline, ids data.IDGenerator) []*data.Datum {
	if endEpoch <= startEpoch || len(classes) == 0 {
		return nil
	}

	lead := time.UnixMilli(startEpoch).Add(-fillLeadIn)
	cursor := datetime.TruncateToHour(lead, tl.ZoneAt(datetime.Epoch(lead)))
	walkEnd := time.UnixMilli(endEpoch)

	var fills []*data.Datum
	for !cursor.After(walkEnd) {
		epoch := datetime.Epoch(cursor)
		zone := tl.ZoneAt(epoch)
		if class, ok := classes[datetime.LocalHour(cursor, zone)]; ok {
			d := &data.Datum{
				ID:         ids(),
				Type:       data.TypeFill,
				Timezone:   zone,
				Epoch:      epoch,
				NormalTime: datetime.ToISO(cursor),
				Fill: &data.Fill{
					ColorClass:         class,
					IsMidnightBoundary: datetime.MsPer24(cursor, zone) == 0,
				},
			}
			d.LocalDayOfWeek = datetime.LocalDayOfWeek(cursor, zone)
			d.LocalDate = datetime.LocalDate(cursor, zone)
			if offset, err := datetime.DisplayOffset(zone, cursor); err == nil {
				d.DisplayOffset = offset
			}
			if n := len(fills); n > 0 {
				fills[n-1].EpochEnd = epoch
				fills[n-1].NormalEnd = datetime.ToISO(cursor)
			}
			fills = append(fills, d)
		}
		cursor = cursor.Add(time.Hour)
	}

	if n := len(fills); n > 0 && fills[n-1].EpochEnd == 0 {
		fills[n-1].EpochEnd = datetime.Epoch(cursor)
		fills[n-1].NormalEnd = datetime.ToISO(cursor)
	}
	return fills
}
