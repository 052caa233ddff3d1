package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/TwiN/deepmerge"
	"github.com/labstack/echo/v4"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/errors"
)

// (PUT /v1/notes/{noteId})
//
// The request body is a partial note: unspecified attributes keep their
// stored values. The merged document is re-validated like any ingested
// record.
func (h *Handler) PutNote(ctx echo.Context, noteID string) error {
	patch, err := io.ReadAll(ctx.Request().Body)
	if err != nil || len(patch) == 0 {
		return errors.BadRequest
	}

	stored := h.engine.Note(noteID)
	if stored == nil {
		return errors.NotFound
	}

	base, err := json.Marshal(noteDocument(stored))
	if err != nil {
		return err
	}
	merged, err := deepmerge.JSON(base, patch)
	if err != nil {
		return errors.BadRequest
	}

	var updated map[string]interface{}
	if err := json.Unmarshal(merged, &updated); err != nil {
		return errors.BadRequest
	}
	updated["id"] = noteID

	edited, err := h.engine.EditNote(ctx.Request().Context(), updated)
	if err != nil {
		return err
	}
	if edited == nil {
		return errors.BadRequest
	}

	return ctx.JSON(http.StatusOK, datumDTO(edited, nil))
}

// noteDocument renders a stored note back into its raw ingestable form, using
// the messaging service's wire keys, so a partial update can merge over it.
func noteDocument(d *data.Datum) map[string]interface{} {
	return map[string]interface{}{
		"id":          d.ID,
		"messagetext": d.MessageText,
		"timestamp":   d.NormalTime,
	}
}
