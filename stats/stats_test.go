package stats_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/datetime"
	"github.com/tidepool-org/timeline/pointer"
	"github.com/tidepool-org/timeline/stats"
)

var dayStart = time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC).UnixMilli()

func glucoseAt(offset time.Duration, value float64, weight int) *data.Datum {
	return &data.Datum{
		Type:    data.TypeCBG,
		Epoch:   dayStart + offset.Milliseconds(),
		Glucose: &data.Glucose{Value: value, Units: data.MgdL, SampleWeight: weight},
	}
}

func bolusAt(offset time.Duration, normal float64) *data.Datum {
	return &data.Datum{
		Type:  data.TypeBolus,
		Epoch: dayStart + offset.Milliseconds(),
		Bolus: &data.Bolus{Normal: normal},
	}
}

func basalAt(offset time.Duration, deliveryType string, durationMs int64) *data.Datum {
	d := &data.Datum{
		Type:  data.TypeBasal,
		Epoch: dayStart + offset.Milliseconds(),
		Basal: &data.Basal{DeliveryType: deliveryType, Rate: 1, DurationMs: durationMs},
	}
	d.EpochEnd = d.Epoch + durationMs
	return d
}

var bounds = stats.BGBounds{TargetLower: 70, TargetUpper: 180}

var _ = Describe("ComputeGlucoseStats", func() {
	It("returns the NaN sentinel when the window holds too few samples", func() {
		records := []*data.Datum{
			glucoseAt(1*time.Hour, 100, 1),
			glucoseAt(2*time.Hour, 120, 1),
		}

		result := stats.ComputeGlucoseStats(records, data.MgdL, bounds, 4, dayStart, dayStart+datetime.MsInDay)

		Expect(math.IsNaN(result.Average.Value)).To(BeTrue())
		Expect(math.IsNaN(result.Breakdown.Total)).To(BeTrue())
		Expect(result.WeightedCount).To(Equal(2.0))
		Expect(result.Threshold).To(Equal(4.0))
	})

	It("weights coarse-sampling sensors in the sufficiency count", func() {
		records := []*data.Datum{
			glucoseAt(1*time.Hour, 100, 3),
			glucoseAt(2*time.Hour, 120, 1),
		}

		result := stats.ComputeGlucoseStats(records, data.MgdL, bounds, 4, dayStart, dayStart+datetime.MsInDay)

		Expect(result.WeightedCount).To(Equal(4.0))
		Expect(math.IsNaN(result.Average.Value)).To(BeFalse())
	})

	It("rounds mg/dL means to whole units and classifies them", func() {
		records := []*data.Datum{
			glucoseAt(1*time.Hour, 100, 1),
			glucoseAt(2*time.Hour, 101, 1),
			glucoseAt(3*time.Hour, 60, 1),
			glucoseAt(4*time.Hour, 190, 1),
		}

		result := stats.ComputeGlucoseStats(records, data.MgdL, bounds, 4, dayStart, dayStart+datetime.MsInDay)

		Expect(result.Average.Value).To(Equal(113.0))
		Expect(result.Average.Category).To(Equal("target"))
		Expect(result.Breakdown.Low).To(Equal(1.0))
		Expect(result.Breakdown.Target).To(Equal(2.0))
		Expect(result.Breakdown.High).To(Equal(1.0))
		Expect(result.Breakdown.Total).To(Equal(4.0))
	})

	It("rounds mmol/L means to one decimal", func() {
		mmolBounds := stats.BGBounds{TargetLower: 3.9, TargetUpper: 10.0}
		records := []*data.Datum{
			{Type: data.TypeSMBG, Epoch: dayStart + datetime.MsInHour,
				Glucose: &data.Glucose{Value: 5.5, Units: data.MmolL}},
			{Type: data.TypeSMBG, Epoch: dayStart + 2*datetime.MsInHour,
				Glucose: &data.Glucose{Value: 6.7, Units: data.MmolL}},
		}

		result := stats.ComputeGlucoseStats(records, data.MmolL, mmolBounds, 2, dayStart, dayStart+datetime.MsInDay)

		Expect(result.Average.Value).To(Equal(6.1))
		Expect(result.Average.Category).To(Equal("target"))
	})

	It("scales the threshold to the window length", func() {
		Expect(stats.SampleThreshold(4, dayStart, dayStart+datetime.MsInDay/2)).To(Equal(2.0))
		Expect(stats.SampleThreshold(216, dayStart, dayStart+2*datetime.MsInDay)).To(Equal(432.0))
		Expect(stats.SampleThreshold(4, dayStart, dayStart)).To(BeZero())
	})

	It("ignores records outside the window", func() {
		records := []*data.Datum{
			glucoseAt(-1*time.Hour, 300, 1),
			glucoseAt(1*time.Hour, 100, 1),
			glucoseAt(25*time.Hour, 300, 1),
		}

		result := stats.ComputeGlucoseStats(records, data.MgdL, bounds, 1, dayStart, dayStart+datetime.MsInDay)

		Expect(result.Average.Value).To(Equal(100.0))
	})
})

var _ = Describe("SumDelivered", func() {
	It("totals the delivered dose of boluses starting in the window", func() {
		records := []*data.Datum{
			bolusAt(-1*time.Hour, 5),
			bolusAt(1*time.Hour, 2),
			bolusAt(2*time.Hour, 3.5),
		}

		Expect(stats.SumDelivered(records, dayStart, dayStart+datetime.MsInDay)).To(Equal(5.5))
	})

	It("includes the extended portion of a combo bolus", func() {
		combo := bolusAt(1*time.Hour, 2)
		combo.Bolus.Extended = pointer.FromAny(1.5)

		Expect(stats.SumDelivered([]*data.Datum{combo}, dayStart, dayStart+datetime.MsInDay)).To(Equal(3.5))
	})

	It("is zero when no bolus starts in the window", func() {
		records := []*data.Datum{bolusAt(-1*time.Hour, 5)}

		Expect(stats.SumDelivered(records, dayStart, dayStart+datetime.MsInDay)).To(BeZero())
		Expect(stats.SumDelivered(nil, dayStart, dayStart+datetime.MsInDay)).To(BeZero())
	})
})

var _ = Describe("DeliverySegments", func() {
	It("groups contiguous delivery-type runs", func() {
		records := []*data.Datum{
			basalAt(0, data.DeliveryTypeScheduled, int64(time.Hour.Milliseconds())),
			basalAt(1*time.Hour, data.DeliveryTypeScheduled, int64(time.Hour.Milliseconds())),
			basalAt(2*time.Hour, data.DeliveryTypeAutomated, int64(time.Hour.Milliseconds())),
			basalAt(3*time.Hour, data.DeliveryTypeScheduled, int64(time.Hour.Milliseconds())),
		}

		segments := stats.DeliverySegments(records, dayStart, dayStart+datetime.MsInDay)

		Expect(segments).To(HaveLen(3))
		Expect(segments[0].DeliveryType).To(Equal(data.DeliveryTypeScheduled))
		Expect(segments[0].Data).To(HaveLen(2))
		Expect(segments[1].DeliveryType).To(Equal(data.DeliveryTypeAutomated))
		Expect(segments[2].DeliveryType).To(Equal(data.DeliveryTypeScheduled))
	})

	It("includes basals overlapping the window start", func() {
		overlapping := basalAt(-30*time.Minute, data.DeliveryTypeScheduled, int64(time.Hour.Milliseconds()))

		segments := stats.DeliverySegments([]*data.Datum{overlapping}, dayStart, dayStart+datetime.MsInDay)

		Expect(segments).To(HaveLen(1))
	})
})
