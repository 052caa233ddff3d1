package test

import (
	"time"

	"github.com/tidepool-org/timeline/datetime"
	"github.com/tidepool-org/timeline/test"
)

// Raw record builders produce transport-shaped documents the way devices
// upload them, for feeding the ingestion pipeline in tests.

func RandomCBG(at time.Time, zone string) map[string]interface{} {
	return glucoseRecord("cbg", at, zone, "DexG6-"+test.Faker.UUID().V4())
}

func RandomSMBG(at time.Time, zone string) map[string]interface{} {
	return glucoseRecord("smbg", at, zone, "OneTouch-"+test.Faker.UUID().V4())
}

func RandomLibreCBG(at time.Time, zone string) map[string]interface{} {
	return glucoseRecord("cbg", at, zone, "AbbottFreeStyleLibre-"+test.Faker.UUID().V4())
}

func RandomBolus(at time.Time, zone string) map[string]interface{} {
	r := record("bolus", at, zone)
	r["subType"] = "normal"
	r["normal"] = float64(test.Faker.IntBetween(1, 12))
	return r
}

func RandomScheduledBasal(at time.Time, zone string, durationMs int64) map[string]interface{} {
	r := record("basal", at, zone)
	r["deliveryType"] = "scheduled"
	r["rate"] = 0.5 + float64(test.Faker.IntBetween(0, 20))/10
	r["duration"] = durationMs
	r["scheduleName"] = test.Faker.RandomStringElement([]string{"Standard", "Weekend"})
	return r
}

func RandomNote(at time.Time, text string) map[string]interface{} {
	return map[string]interface{}{
		"id":          test.Faker.UUID().V4(),
		"timestamp":   datetime.ToISO(at),
		"messagetext": text,
	}
}

func RandomUpload(at time.Time, zone string) map[string]interface{} {
	r := record("upload", at, zone)
	r["uploadId"] = test.Faker.UUID().V4()
	return r
}

func RandomPumpSettings(at time.Time, zone string, manufacturer string) map[string]interface{} {
	r := record("pumpSettings", at, zone)
	r["payload"] = map[string]interface{}{
		"pump": map[string]interface{}{"manufacturer": manufacturer},
	}
	return r
}

func record(recordType string, at time.Time, zone string) map[string]interface{} {
	r := map[string]interface{}{
		"id":       test.Faker.UUID().V4(),
		"type":     recordType,
		"time":     datetime.ToISO(at),
		"deviceId": test.Faker.UUID().V4(),
		"uploadId": test.Faker.UUID().V4(),
	}
	if zone != "" {
		r["timezone"] = zone
	}
	return r
}

func glucoseRecord(recordType string, at time.Time, zone, deviceID string) map[string]interface{} {
	r := record(recordType, at, zone)
	r["deviceId"] = deviceID
	r["value"] = float64(test.Faker.IntBetween(40, 400))
	r["units"] = "mg/dL"
	return r
}
