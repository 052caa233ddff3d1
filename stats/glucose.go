// Package stats computes windowed summaries over grouped records. Out-of-range
// or missing inputs degrade to "no data" sentinels rather than errors: a chart
// must render something for any date range a clinician selects.
package stats

import (
	"math"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
)

// BGBounds classify glucose values, in the session's unit system.
type BGBounds struct {
	TargetLower float64
	TargetUpper float64
}

// Average is a windowed mean with its classification.
type Average struct {
	Value    float64 `structs:"value"`
	Category string  `structs:"category,omitempty"`
}

// Breakdown counts readings per classification band. All components are NaN
// when the window held insufficient data; otherwise Low+Target+High == Total.
type Breakdown struct {
	Low    float64 `structs:"low"`
	Target float64 `structs:"target"`
	High   float64 `structs:"high"`
	Total  float64 `structs:"total"`
}

// GlucoseStats is the result of a windowed glucose summary.
type GlucoseStats struct {
	Average       Average   `structs:"average"`
	Breakdown     Breakdown `structs:"breakdown"`
	WeightedCount float64   `structs:"weightedCount"`
	Threshold     float64   `structs:"threshold"`
}

// insufficient is the sentinel result: NaN average, NaN breakdown.
func insufficient(weighted, threshold float64) GlucoseStats {
	nan := math.NaN()
	return GlucoseStats{
		Average:       Average{Value: nan},
		Breakdown:     Breakdown{Low: nan, Target: nan, High: nan, Total: nan},
		WeightedCount: weighted,
		Threshold:     threshold,
	}
}

// WeightedCount sums the records' sample weights: a reading from a sensor
// with a coarser native sampling interval counts as multiple samples.
func WeightedCount(records []*data.Datum) float64 {
	var count float64
	for _, d := range records {
		weight := 1
		if d.Glucose != nil && d.Glucose.SampleWeight > 0 {
			weight = d.Glucose.SampleWeight
		}
		count += float64(weight)
	}
	return count
}

// SampleThreshold scales the per-day minimum sample count to the window
// length.
func SampleThreshold(dailyMin float64, startEpoch, endEpoch int64) float64 {
	if endEpoch <= startEpoch {
		return 0
	}
	return dailyMin * float64(endEpoch-startEpoch) / float64(datetime.MsInDay)
}

// ComputeGlucoseStats summarizes the records starting within [start, end).
// When the weighted sample count falls below the window's threshold the
// sentinel "no data" result is returned instead of a misleading statistic.
func ComputeGlucoseStats(records []*data.Datum, units data.Unit, bounds BGBounds, dailyMin float64, startEpoch, endEpoch int64) GlucoseStats {
	windowed := window(records, startEpoch, endEpoch)
	weighted := WeightedCount(windowed)
	threshold := SampleThreshold(dailyMin, startEpoch, endEpoch)

	if len(windowed) == 0 || weighted < threshold {
		return insufficient(weighted, threshold)
	}

	var sum float64
	breakdown := Breakdown{}
	for _, d := range windowed {
		value := d.Glucose.Value
		sum += value
		switch {
		case value < bounds.TargetLower:
			breakdown.Low++
		case value <= bounds.TargetUpper:
			breakdown.Target++
		default:
			breakdown.High++
		}
	}
	breakdown.Total = breakdown.Low + breakdown.Target + breakdown.High

	mean := sum / float64(len(windowed))
	if units == data.MgdL {
		// Whole units for mg/dL, one decimal for mmol/L.
		mean = math.Round(mean)
	} else {
		mean = math.Round(mean*10) / 10
	}

	category := "target"
	switch {
	case mean < bounds.TargetLower:
		category = "low"
	case mean > bounds.TargetUpper:
		category = "high"
	}

	return GlucoseStats{
		Average:       Average{Value: mean, Category: category},
		Breakdown:     breakdown,
		WeightedCount: weighted,
		Threshold:     threshold,
	}
}

// window selects records whose start instant falls within [start, end),
// assuming records sorted by epoch ascending.
func window(records []*data.Datum, startEpoch, endEpoch int64) []*data.Datum {
	var out []*data.Datum
	for _, d := range records {
		if d.Epoch >= endEpoch {
			break
		}
		if d.Epoch >= startEpoch {
			out = append(out, d)
		}
	}
	return out
}
