package api

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidepool-org/timeline/dataset"
	"github.com/tidepool-org/timeline/errors"
	"github.com/tidepool-org/timeline/normalizer"
)

type BolusTotalDto struct {
	Delivered float64 `json:"delivered"`
}

// (GET /v1/stats/glucose)
//
// Query parameters: category (cbg or smbg, required), start and end.
func (h *Handler) GetGlucoseStats(ctx echo.Context) error {
	start, end, err := windowParams(ctx)
	if err != nil {
		return errors.BadRequest
	}

	result, err := h.engine.GlucoseStats(ctx.QueryParam("category"), start, end)
	if err != nil {
		switch {
		case stderrors.Is(err, dataset.ErrNoData), stderrors.Is(err, dataset.ErrInvalidCategory):
			return errors.BadRequest
		}
		return err
	}

	return ctx.JSON(http.StatusOK, glucoseStatsDTO(result))
}

// (GET /v1/stats/bolus)
func (h *Handler) GetBolusStats(ctx echo.Context) error {
	start, end, err := windowParams(ctx)
	if err != nil {
		return errors.BadRequest
	}

	delivered, err := h.engine.BolusTotal(start, end)
	if err != nil {
		if stderrors.Is(err, dataset.ErrNoData) {
			return errors.BadRequest
		}
		return err
	}

	return ctx.JSON(http.StatusOK, BolusTotalDto{Delivered: delivered})
}

// (GET /v1/stats/basal)
func (h *Handler) GetBasalStats(ctx echo.Context) error {
	start, end, err := windowParams(ctx)
	if err != nil {
		return errors.BadRequest
	}

	segments, err := h.engine.BasalSegments(start, end)
	if err != nil {
		if stderrors.Is(err, dataset.ErrNoData) {
			return errors.BadRequest
		}
		return err
	}

	var arena *normalizer.Arena
	if ds := h.engine.DataSet(); ds != nil {
		arena = ds.Arena
	}
	return ctx.JSON(http.StatusOK, basalSegmentsDTO(segments, arena))
}

func windowParams(ctx echo.Context) (int64, int64, error) {
	start, err := epochParam(ctx.QueryParam("start"), 0)
	if err != nil {
		return 0, 0, err
	}
	end, err := epochParam(ctx.QueryParam("end"), int64(1)<<62)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
