package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/tidepool-org/timeline/api"
	"github.com/tidepool-org/timeline/config"
	datatest "github.com/tidepool-org/timeline/data/test"
	"github.com/tidepool-org/timeline/dataset"
	"github.com/tidepool-org/timeline/datetime"
)

var base = time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)

func newServer() *echo.Echo {
	cfg := &config.Config{
		DefaultTimezone:     "UTC",
		BGUnits:             "mg/dL",
		BGTargetLower:       70,
		BGTargetUpper:       180,
		CBGMaxDaily:         288,
		CBGPercentForEnough: 0.75,
		SMBGDailyMin:        4,
		SampleWeights:       map[string]int{"AbbottFreeStyleLibre": 3},
		FillClasses:         map[string]string{"0": "fillDarkest", "12": "fillLightest"},
	}
	engine, err := dataset.NewEngine(cfg, zap.NewNop().Sugar())
	Expect(err).ToNot(HaveOccurred())

	handler := api.NewHandler(api.Params{Engine: engine, Config: cfg})
	healthCheck := api.NewHealthCheck()
	healthCheck.SetReady(true)

	e, err := api.NewServer(handler, healthCheck, zap.NewNop())
	Expect(err).ToNot(HaveOccurred())
	return e
}

func doJSON(e *echo.Echo, method, target string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		Expect(err).ToNot(HaveOccurred())
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

var _ = Describe("Timeline API", func() {
	var e *echo.Echo

	BeforeEach(func() {
		e = newServer()
	})

	Describe("POST /v1/device-data", func() {
		It("ingests a batch and reports the accepted count", func() {
			batch := []map[string]interface{}{
				datatest.RandomCBG(base, "Europe/Paris"),
				datatest.RandomBolus(base.Add(time.Hour), "Europe/Paris"),
			}

			rec := doJSON(e, http.MethodPost, "/v1/device-data", batch)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var result api.IngestResult
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result.Accepted).To(Equal(2))
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/device-data", bytes.NewReader([]byte("{")))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /v1/data", func() {
		It("returns mapped records in the window", func() {
			batch := []map[string]interface{}{
				datatest.RandomCBG(base, ""),
				datatest.RandomCBG(base.Add(time.Hour), ""),
			}
			Expect(doJSON(e, http.MethodPost, "/v1/device-data", batch).Code).To(Equal(http.StatusOK))

			target := fmt.Sprintf("/v1/data?category=cbg&start=%d&end=%d",
				base.UnixMilli(), base.Add(30*time.Minute).UnixMilli())
			rec := doJSON(e, http.MethodGet, target, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var records []map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &records)).To(Succeed())
			Expect(records).To(HaveLen(1))
			Expect(records[0]["type"]).To(Equal("cbg"))
			Expect(records[0]["normalTime"]).To(Equal("2021-06-15T10:00:00.000Z"))
			Expect(records[0]).To(HaveKey("value"))
			Expect(records[0]).ToNot(HaveKey("Time"))
		})

		It("accepts ISO window bounds", func() {
			batch := []map[string]interface{}{datatest.RandomCBG(base, "")}
			Expect(doJSON(e, http.MethodPost, "/v1/device-data", batch).Code).To(Equal(http.StatusOK))

			target := "/v1/data?start=2021-06-15T00:00:00Z&end=2021-06-16T00:00:00Z"
			rec := doJSON(e, http.MethodGet, target, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("GET /v1/stats/glucose", func() {
		It("maps the insufficient-data sentinels to nulls", func() {
			batch := []map[string]interface{}{datatest.RandomCBG(base, "")}
			Expect(doJSON(e, http.MethodPost, "/v1/device-data", batch).Code).To(Equal(http.StatusOK))

			target := fmt.Sprintf("/v1/stats/glucose?category=cbg&start=%d&end=%d",
				base.Add(-12*time.Hour).UnixMilli(), base.Add(12*time.Hour).UnixMilli())
			rec := doJSON(e, http.MethodGet, target, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			average := result["average"].(map[string]interface{})
			Expect(average["value"]).To(BeNil())
		})

		It("rejects a non-glucose category", func() {
			batch := []map[string]interface{}{datatest.RandomCBG(base, "")}
			Expect(doJSON(e, http.MethodPost, "/v1/device-data", batch).Code).To(Equal(http.StatusOK))

			rec := doJSON(e, http.MethodGet, "/v1/stats/glucose?category=bolus", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PUT /v1/notes/:noteId", func() {
		It("merges a partial update over the stored note", func() {
			note := datatest.RandomNote(base, "lunch")
			Expect(doJSON(e, http.MethodPost, "/v1/device-data", []map[string]interface{}{note}).Code).
				To(Equal(http.StatusOK))

			target := "/v1/notes/" + note["id"].(string)
			rec := doJSON(e, http.MethodPut, target, map[string]interface{}{
				"messagetext": "late lunch",
			})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result["messageText"]).To(Equal("late lunch"))
			// The timestamp was not part of the update and is unchanged.
			Expect(result["normalTime"]).To(Equal(datetime.ToISO(base)))
		})

		It("404s for an unknown note", func() {
			rec := doJSON(e, http.MethodPut, "/v1/notes/missing", map[string]interface{}{
				"messagetext": "x",
			})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /ready", func() {
		It("reports readiness", func() {
			rec := doJSON(e, http.MethodGet, "/ready", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
