package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tidepool-org/timeline/datetime"
	"github.com/tidepool-org/timeline/errors"
)

// (GET /v1/data)
//
// Query parameters: category (a record type or "all", default all), start and
// end (ISO-8601 timestamps or epoch milliseconds; default unbounded).
func (h *Handler) GetData(ctx echo.Context) error {
	start, err := epochParam(ctx.QueryParam("start"), 0)
	if err != nil {
		return errors.BadRequest
	}
	end, err := epochParam(ctx.QueryParam("end"), int64(1)<<62)
	if err != nil {
		return errors.BadRequest
	}

	records := h.engine.RangeQuery(ctx.QueryParam("category"), start, end)
	ds := h.engine.DataSet()

	out := make([]map[string]interface{}, 0, len(records))
	for _, d := range records {
		var dto map[string]interface{}
		if ds != nil {
			dto = datumDTO(d, ds.Arena)
		} else {
			dto = datumDTO(d, nil)
		}
		out = append(out, dto)
	}
	return ctx.JSON(http.StatusOK, out)
}

func epochParam(value string, fallback int64) (int64, error) {
	if value == "" {
		return fallback, nil
	}
	if epoch, err := strconv.ParseInt(value, 10, 64); err == nil {
		return epoch, nil
	}
	t, err := datetime.Parse(value, nil)
	if err != nil {
		return 0, err
	}
	return datetime.Epoch(t), nil
}
