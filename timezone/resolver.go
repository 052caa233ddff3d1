// Package timezone assigns an authoritative IANA zone to every record of a
// time-ordered dataset, distinguishes genuine timezone changes from seasonal
// offset shifts, and synthesizes explicit time-change markers for the
// timeline.
package timezone

import (
	"time"

	"go.uber.org/zap"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
)

// Segment is one piece of the piecewise timezone timeline: Zone applies from
// Epoch until the next segment.
type Segment struct {
	Epoch int64  `structs:"epoch"`
	Zone  string `structs:"zone"`
}

// Timeline supports point lookups of the zone applying at a given instant.
type Timeline []Segment

// ZoneAt returns the zone applying at the given epoch. The first segment
// also covers instants before it.
func (tl Timeline) ZoneAt(epoch int64) string {
	if len(tl) == 0 {
		return ""
	}
	zone := tl[0].Zone
	for _, segment := range tl[1:] {
		if segment.Epoch > epoch {
			break
		}
		zone = segment.Zone
	}
	return zone
}

// Result carries the resolved timeline and the synthesized markers, which the
// caller appends to the record set before re-sorting.
type Result struct {
	Timeline Timeline
	Markers  []*data.Datum
}

type Resolver struct {
	defaultZone string
	ids         data.IDGenerator
	logger      *zap.SugaredLogger
}

func NewResolver(defaultZone string, ids data.IDGenerator, logger *zap.SugaredLogger) *Resolver {
	if ids == nil {
		ids = data.RandomID
	}
	return &Resolver{
		defaultZone: defaultZone,
		ids:         ids,
		logger:      logger,
	}
}

// Resolve walks the records in time order, assigning a zone and display
// offset to each. Records carrying no usable zone inherit the current
// authoritative zone and are flagged guessed. The authoritative zone follows
// observed, non-degenerate zones whose offset genuinely differs at that
// instant; same-zone offset shifts are seasonal transitions and produce a
// distinct marker at the transition instant.
//
// Resolution is deterministic with respect to arrival order because it runs
// over the whole merged, sorted set on every ingestion.
func (r *Resolver) Resolve(records []*data.Datum) Result {
	seed := r.seedZone(records)

	var (
		result      Result
		currentZone = seed
		lastOffset  = 0
		haveOffset  = false
		lastEpoch   int64
	)
	if len(records) > 0 {
		lastEpoch = records[0].Epoch
	}
	result.Timeline = Timeline{{Epoch: minEpoch(records), Zone: seed}}

	datasetStart, datasetEnd := span(records)

	for _, d := range records {
		t := time.UnixMilli(d.Epoch)

		valid := d.Timezone != "" && datetime.IsZone(d.Timezone)
		observed := valid && !d.GuessedTimezone && !datetime.IsDegenerateZone(d.Timezone)

		switch {
		case valid && datetime.IsDegenerateZone(d.Timezone):
			// Fixed-offset aliases keep their own display offset but are
			// excluded from being treated as observed.
			d.GuessedTimezone = true
		case !observed:
			d.Timezone = currentZone
			d.GuessedTimezone = true
		case d.Timezone != currentZone:
			recordOffset, err := datetime.OffsetAt(d.Timezone, t)
			if err == nil {
				currentOffset, _ := datetime.OffsetAt(currentZone, t)
				if recordOffset != currentOffset {
					result.Markers = append(result.Markers, r.zoneChangeMarker(currentZone, d.Timezone, t))
					r.logger.Infow("timezone change", "from", currentZone, "to", d.Timezone, "at", d.NormalTime)
				}
				// Same-offset renames still move the authoritative zone so
				// later seasonal shifts use the right transition rules.
				currentZone = d.Timezone
				result.Timeline = append(result.Timeline, Segment{Epoch: d.Epoch, Zone: currentZone})
				lastOffset = recordOffset
				haveOffset = true
				lastEpoch = d.Epoch
			}
		default:
			offset, err := datetime.OffsetAt(currentZone, t)
			if err == nil {
				if haveOffset && offset != lastOffset {
					r.seasonalMarker(&result, currentZone, lastEpoch, d.Epoch, datasetStart, datasetEnd)
				}
				lastOffset = offset
				haveOffset = true
				lastEpoch = d.Epoch
			}
		}

		r.applyLocalFields(d)
	}

	return result
}

// seedZone scans forward for the first directly-observed, valid,
// non-degenerate zone; the configured default applies when none exists.
func (r *Resolver) seedZone(records []*data.Datum) string {
	for _, d := range records {
		if d.GuessedTimezone || d.Timezone == "" {
			continue
		}
		if datetime.IsZone(d.Timezone) && !datetime.IsDegenerateZone(d.Timezone) {
			return d.Timezone
		}
	}
	return r.defaultZone
}

// seasonalMarker synthesizes a time-change marker at the zone's own
// transition instant between two observations. A transition outside the
// dataset's covered span is dropped with a diagnostic: it would render
// outside every chart.
func (r *Resolver) seasonalMarker(result *Result, zone string, fromEpoch, toEpoch, datasetStart, datasetEnd int64) {
	transition, ok := datetime.TransitionBetween(zone, time.UnixMilli(fromEpoch), time.UnixMilli(toEpoch))
	if !ok {
		return
	}
	epoch := datetime.Epoch(transition)
	if epoch < datasetStart || epoch > datasetEnd {
		r.logger.Debugw("dropping seasonal time-change marker outside dataset span",
			"zone", zone, "transition", datetime.ToISO(transition))
		return
	}
	result.Markers = append(result.Markers, r.offsetChangeMarker(zone, transition))
	r.logger.Infow("seasonal offset change", "zone", zone, "at", datetime.ToISO(transition))
}

func (r *Resolver) zoneChangeMarker(fromZone, toZone string, at time.Time) *data.Datum {
	marker := r.marker(toZone, at)
	marker.From = &data.ZoneChange{Time: localClock(at, fromZone), TimeZoneName: fromZone}
	marker.To = &data.ZoneChange{Time: localClock(at, toZone), TimeZoneName: toZone}
	return marker
}

func (r *Resolver) offsetChangeMarker(zone string, at time.Time) *data.Datum {
	marker := r.marker(zone, at)
	marker.From = &data.ZoneChange{Time: localClock(at.Add(-time.Second), zone), TimeZoneName: zone}
	marker.To = &data.ZoneChange{Time: localClock(at, zone), TimeZoneName: zone}
	return marker
}

func (r *Resolver) marker(zone string, at time.Time) *data.Datum {
	d := &data.Datum{
		ID:         r.ids(),
		Type:       data.TypeDeviceEvent,
		SubType:    data.SubTypeTimeChange,
		Source:     data.DefaultSource,
		Method:     data.MethodGuessed,
		Timezone:   zone,
		Epoch:      datetime.Epoch(at),
		NormalTime: datetime.ToISO(at),
	}
	r.applyLocalFields(d)
	return d
}

// applyLocalFields derives the record's display offset and local calendar
// attributes from its resolved zone.
func (r *Resolver) applyLocalFields(d *data.Datum) {
	t := time.UnixMilli(d.Epoch)
	if offset, err := datetime.DisplayOffset(d.Timezone, t); err == nil {
		d.DisplayOffset = offset
	}
	d.LocalDayOfWeek = datetime.LocalDayOfWeek(t, d.Timezone)
	d.LocalDate = datetime.LocalDate(t, d.Timezone)
}

func localClock(t time.Time, zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02T15:04:05")
}

func minEpoch(records []*data.Datum) int64 {
	if len(records) == 0 {
		return 0
	}
	return records[0].Epoch
}

func span(records []*data.Datum) (int64, int64) {
	if len(records) == 0 {
		return 0, 0
	}
	start := records[0].Epoch
	end := records[len(records)-1].End()
	for _, d := range records {
		if e := d.End(); e > end {
			end = e
		}
	}
	return start, end
}
