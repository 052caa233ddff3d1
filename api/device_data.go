package api

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidepool-org/timeline/dataset"
	"github.com/tidepool-org/timeline/errors"
)

type IngestResult struct {
	Accepted int `json:"accepted"`
}

// (POST /v1/device-data)
func (h *Handler) PostDeviceData(ctx echo.Context) error {
	var batch []map[string]interface{}
	if err := ctx.Bind(&batch); err != nil {
		return errors.BadRequest
	}

	added, err := h.engine.AddBatch(ctx.Request().Context(), batch)
	if err != nil {
		switch {
		case stderrors.Is(err, dataset.ErrInvalidBatch):
			return errors.BadRequest
		case stderrors.Is(err, dataset.ErrIngestInFlight):
			return errors.Conflict
		}
		return err
	}

	return ctx.JSON(http.StatusOK, IngestResult{Accepted: added})
}
