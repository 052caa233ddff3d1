// Package datetime provides timezone-aware date arithmetic for the timeline
// engine. All functions are pure; zone lookups go through the process tzdata.
package datetime

import (
	"strings"
	"time"
)

// ISOFormat is the canonical absolute-instant representation: UTC with
// millisecond precision.
const ISOFormat = "2006-01-02T15:04:05.000Z"

const (
	MsInMinute int64 = 60 * 1000
	MsInHour   int64 = 60 * MsInMinute
	MsInDay    int64 = 24 * MsInHour
)

// Records with timestamps before this instant predate every supported device
// and are rejected; they come from legacy notes with hand-edited dates.
var earliestValid = time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC)

var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Parse reads a device-relative timestamp. Timestamps carrying an explicit
// UTC offset keep their offset semantics; bare local timestamps are
// interpreted in fallback.
func Parse(value string, fallback *time.Location) (time.Time, error) {
	var firstErr error
	for _, layout := range parseLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if fallback == nil {
		fallback = time.UTC
	}
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, value, fallback)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, firstErr
}

// IsTimestamp reports whether value passes strict timestamp validation.
func IsTimestamp(value string) bool {
	_, err := Parse(value, time.UTC)
	return err == nil
}

// IsPlausible reports whether the instant falls within the supported
// timestamp range.
func IsPlausible(t time.Time) bool {
	return !t.Before(earliestValid)
}

// ToISO renders an instant in the canonical absolute form.
func ToISO(t time.Time) string {
	return t.UTC().Format(ISOFormat)
}

// EpochToISO renders an epoch-milliseconds instant in the canonical form.
func EpochToISO(epoch int64) string {
	return ToISO(time.UnixMilli(epoch))
}

// Epoch returns the instant in epoch milliseconds.
func Epoch(t time.Time) int64 {
	return t.UnixMilli()
}

// IsZone reports whether name is a loadable IANA zone.
func IsZone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// IsDegenerateZone reports whether name is a fixed-offset alias rather than a
// real region zone. Degenerate zones are tolerated on individual records but
// never become the authoritative session zone.
func IsDegenerateZone(name string) bool {
	switch name {
	case "UTC", "GMT", "Etc/UTC", "Etc/GMT", "Etc/Universal", "Universal", "Zulu":
		return true
	}
	return strings.HasPrefix(name, "Etc/GMT+") || strings.HasPrefix(name, "Etc/GMT-")
}

// OffsetAt returns the zone's UTC offset in minutes east at the given
// instant.
func OffsetAt(zone string, t time.Time) (int, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return 0, err
	}
	_, seconds := t.In(loc).Zone()
	return seconds / 60, nil
}

// DisplayOffset is the signed minutes used to place a record at its local
// wall-clock position: the negated minutes-east offset of zone at t.
func DisplayOffset(zone string, t time.Time) (int, error) {
	offset, err := OffsetAt(zone, t)
	if err != nil {
		return 0, err
	}
	return -offset, nil
}

// LocalDayOfWeek returns the lowercase weekday name of the instant in zone.
func LocalDayOfWeek(t time.Time, zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return strings.ToLower(t.In(loc).Weekday().String())
}

// LocalDate returns the calendar date of the instant in zone.
func LocalDate(t time.Time, zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// LocalHour returns the hour-of-day of the instant in zone.
func LocalHour(t time.Time, zone string) int {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Hour()
}

// MsPer24 returns the milliseconds elapsed since local midnight in zone.
func MsPer24(t time.Time, zone string) int64 {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return int64(local.Hour())*MsInHour +
		int64(local.Minute())*MsInMinute +
		int64(local.Second())*1000 +
		int64(local.Nanosecond()/1e6)
}

// TruncateToHour floors the instant to the containing local hour in zone, so
// hour-aligned walks stay aligned in zones with non-whole-hour UTC offsets.
func TruncateToHour(t time.Time, zone string) time.Time {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
}

// TransitionBetween locates the instant at which the zone's UTC offset
// changes within (from, to], by bisection to second precision. The stdlib
// exposes no transition table, but the offset function is piecewise constant
// so a single transition in the interval is exactly recoverable.
func TransitionBetween(zone string, from, to time.Time) (time.Time, bool) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, false
	}
	startOffset := offsetSeconds(from, loc)
	endOffset := offsetSeconds(to, loc)
	if startOffset == endOffset {
		return time.Time{}, false
	}
	lo, hi := from, to
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if offsetSeconds(mid, loc) == startOffset {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi.Truncate(time.Second), true
}

func offsetSeconds(t time.Time, loc *time.Location) int {
	_, seconds := t.In(loc).Zone()
	return seconds
}

// NumDays returns the number of whole or partial days between two epochs.
func NumDays(startEpoch, endEpoch int64) int {
	span := endEpoch - startEpoch
	if span <= 0 {
		return 0
	}
	days := span / MsInDay
	if span%MsInDay != 0 {
		days++
	}
	return int(days)
}
