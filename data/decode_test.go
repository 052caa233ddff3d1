package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/pointer"
)

var _ = Describe("Decode", func() {
	It("decodes common attributes", func() {
		d, err := data.Decode(map[string]interface{}{
			"id": "r-1", "type": "cbg", "time": "2021-06-15T10:00:00Z",
			"timezone": "Europe/Paris", "deviceId": "DexG6-1",
			"value": 112, "units": "mg/dL",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(d.ID).To(Equal("r-1"))
		Expect(d.Type).To(Equal(data.TypeCBG))
		Expect(d.Timezone).To(Equal("Europe/Paris"))
		Expect(d.Glucose.Value).To(Equal(112.0))
		Expect(d.Glucose.Units).To(Equal(data.MgdL))
	})

	It("defaults glucose units to mg/dL", func() {
		d, err := data.Decode(map[string]interface{}{
			"type": "smbg", "time": "2021-06-15T10:00:00Z", "value": 95,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Glucose.Units).To(Equal(data.MgdL))
	})

	It("keeps basal category fields off the common record", func() {
		d, err := data.Decode(map[string]interface{}{
			"type": "basal", "time": "2021-06-15T10:00:00Z",
			"deliveryType": "scheduled", "rate": 0.85, "duration": 3600000,
			"scheduleName": "Standard",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Basal.DeliveryType).To(Equal("scheduled"))
		Expect(d.Basal.Rate).To(Equal(0.85))
		Expect(d.Basal.DurationMs).To(Equal(int64(3600000)))
		Expect(d.Basal.Suppressed).To(Equal(data.HandleNone))
		Expect(d.Duration).To(BeNil())
	})

	It("decodes the wizard recommendation when present", func() {
		d, err := data.Decode(map[string]interface{}{
			"type": "wizard", "time": "2021-06-15T10:00:00Z",
			"carbInput": 45, "bolus": "b-1",
			"recommended": map[string]interface{}{"carb": 3.0, "net": 2.5},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Wizard.BolusID).To(Equal("b-1"))
		Expect(pointer.ToFloat64(d.Wizard.Recommended.Carb)).To(Equal(3.0))
		Expect(pointer.ToFloat64(d.Wizard.Recommended.Net)).To(Equal(2.5))
		Expect(d.Wizard.Recommended.Correction).To(BeNil())
	})

	It("drops an empty wizard recommendation", func() {
		d, err := data.Decode(map[string]interface{}{
			"type": "wizard", "time": "2021-06-15T10:00:00Z", "carbInput": 45,
			"recommended": map[string]interface{}{},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Wizard.Recommended).To(BeNil())
	})

	It("reshapes notes from the messaging service", func() {
		d, err := data.Decode(map[string]interface{}{
			"id":            "n-1",
			"timestamp":     "2021-06-15T10:00:00Z",
			"messagetext":   "lunch",
			"parentmessage": "",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Type).To(Equal(data.TypeMessage))
		Expect(d.Time).To(Equal("2021-06-15T10:00:00Z"))
		Expect(d.MessageText).To(Equal("lunch"))
		Expect(d.ParentMessage).To(BeEmpty())
	})

	It("decodes device event durations from the {value, units} form", func() {
		d, err := data.Decode(map[string]interface{}{
			"type": "deviceEvent", "subType": "zen", "time": "2021-06-15T10:00:00Z",
			"duration": map[string]interface{}{"value": 30, "units": "minutes"},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(d.Duration.Value).To(Equal(30.0))
		Expect(d.Duration.Units).To(Equal("minutes"))
	})
})

var _ = Describe("Datum", func() {
	It("answers the diabetes data extent membership", func() {
		Expect((&data.Datum{Type: data.TypeBasal}).IsDiabetesData()).To(BeTrue())
		Expect((&data.Datum{Type: data.TypeMessage}).IsDiabetesData()).To(BeFalse())
	})

	It("extends to the end instant when one exists", func() {
		d := &data.Datum{Epoch: 100, EpochEnd: 500}
		Expect(d.End()).To(Equal(int64(500)))
		Expect((&data.Datum{Epoch: 100}).End()).To(Equal(int64(100)))
	})

	It("finds annotations by code", func() {
		d := &data.Datum{Annotations: []data.Annotation{{Code: "status/unknown-previous"}}}
		Expect(d.HasAnnotation("status/unknown-previous")).To(BeTrue())
		Expect(d.HasAnnotation("other")).To(BeFalse())
	})
})
