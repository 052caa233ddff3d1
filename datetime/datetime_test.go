package datetime_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/timeline/datetime"
)

var _ = Describe("Parse", func() {
	It("keeps explicit UTC offsets", func() {
		t, err := datetime.Parse("2021-06-15T10:00:00+02:00", time.UTC)
		Expect(err).ToNot(HaveOccurred())
		Expect(t.UnixMilli()).To(Equal(time.Date(2021, 6, 15, 8, 0, 0, 0, time.UTC).UnixMilli()))
	})

	It("parses millisecond UTC timestamps", func() {
		t, err := datetime.Parse("2021-06-15T10:00:00.500Z", time.UTC)
		Expect(err).ToNot(HaveOccurred())
		Expect(t.UnixMilli()).To(Equal(time.Date(2021, 6, 15, 10, 0, 0, int(500*time.Millisecond), time.UTC).UnixMilli()))
	})

	It("interprets bare local timestamps in the fallback zone", func() {
		paris, err := time.LoadLocation("Europe/Paris")
		Expect(err).ToNot(HaveOccurred())

		t, err := datetime.Parse("2021-01-15T10:00:00", paris)
		Expect(err).ToNot(HaveOccurred())
		Expect(t.UnixMilli()).To(Equal(time.Date(2021, 1, 15, 9, 0, 0, 0, time.UTC).UnixMilli()))
	})

	It("fails on malformed timestamps", func() {
		_, err := datetime.Parse("not-a-time", time.UTC)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("IsPlausible", func() {
	It("rejects instants before 2008", func() {
		Expect(datetime.IsPlausible(time.Date(2007, 12, 31, 23, 59, 59, 0, time.UTC))).To(BeFalse())
		Expect(datetime.IsPlausible(time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC))).To(BeTrue())
	})
})

var _ = Describe("DisplayOffset", func() {
	It("negates the minutes-east offset", func() {
		winter := time.Date(2021, 1, 15, 12, 0, 0, 0, time.UTC)
		offset, err := datetime.DisplayOffset("Europe/Paris", winter)
		Expect(err).ToNot(HaveOccurred())
		Expect(offset).To(Equal(-60))

		summer := time.Date(2021, 7, 15, 12, 0, 0, 0, time.UTC)
		offset, err = datetime.DisplayOffset("Europe/Paris", summer)
		Expect(err).ToNot(HaveOccurred())
		Expect(offset).To(Equal(-120))
	})

	It("is positive west of Greenwich", func() {
		winter := time.Date(2021, 1, 15, 12, 0, 0, 0, time.UTC)
		offset, err := datetime.DisplayOffset("America/New_York", winter)
		Expect(err).ToNot(HaveOccurred())
		Expect(offset).To(Equal(300))
	})
})

var _ = Describe("IsDegenerateZone", func() {
	It("flags fixed-offset aliases", func() {
		Expect(datetime.IsDegenerateZone("UTC")).To(BeTrue())
		Expect(datetime.IsDegenerateZone("GMT")).To(BeTrue())
		Expect(datetime.IsDegenerateZone("Etc/GMT+7")).To(BeTrue())
	})

	It("accepts region zones", func() {
		Expect(datetime.IsDegenerateZone("Europe/Paris")).To(BeFalse())
		Expect(datetime.IsDegenerateZone("America/Los_Angeles")).To(BeFalse())
	})
})

var _ = Describe("TransitionBetween", func() {
	It("locates the spring-forward instant", func() {
		before := time.Date(2021, 3, 27, 12, 0, 0, 0, time.UTC)
		after := time.Date(2021, 3, 29, 12, 0, 0, 0, time.UTC)

		transition, ok := datetime.TransitionBetween("Europe/Paris", before, after)
		Expect(ok).To(BeTrue())
		// Paris moved to CEST at 01:00 UTC on March 28th 2021.
		Expect(transition.UTC()).To(Equal(time.Date(2021, 3, 28, 1, 0, 0, 0, time.UTC)))
	})

	It("reports no transition for a stable interval", func() {
		from := time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC)
		to := time.Date(2021, 1, 20, 0, 0, 0, 0, time.UTC)

		_, ok := datetime.TransitionBetween("Europe/Paris", from, to)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("TruncateToHour", func() {
	It("floors to the local hour of the zone", func() {
		t := time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)

		Expect(datetime.TruncateToHour(t, "UTC").UnixMilli()).To(Equal(t.UnixMilli()))

		// 10:00 UTC is 15:30 in Kolkata; the containing local hour starts
		// at 15:00 IST, which is 09:30 UTC.
		truncated := datetime.TruncateToHour(t, "Asia/Kolkata")
		Expect(truncated.UnixMilli()).To(Equal(time.Date(2021, 6, 15, 9, 30, 0, 0, time.UTC).UnixMilli()))
		Expect(datetime.MsPer24(truncated, "Asia/Kolkata")).To(Equal(15 * datetime.MsInHour))
	})
})

var _ = Describe("MsPer24", func() {
	It("measures from local midnight", func() {
		t := time.Date(2021, 6, 15, 22, 30, 0, 0, time.UTC)
		Expect(datetime.MsPer24(t, "Europe/Paris")).To(Equal(int64(30 * 60 * 1000)))
		Expect(datetime.MsPer24(t, "UTC")).To(Equal(int64(22*60*60*1000 + 30*60*1000)))
	})
})

var _ = Describe("NumDays", func() {
	It("counts partial days as whole", func() {
		Expect(datetime.NumDays(0, datetime.MsInDay)).To(Equal(1))
		Expect(datetime.NumDays(0, datetime.MsInDay+1)).To(Equal(2))
		Expect(datetime.NumDays(10, 10)).To(Equal(0))
	})
})
