package routes

import (
	"net/http"

	"github.com/atlas-grag/atlas/internal/server/middleware"
	"github.com/atlas-grag/atlas/pkg/ingest"

	"github.com/labstack/echo/v4"
)

// IngestTextHandler ingests one block of text synchronously and returns
// the aggregated counters.
func IngestTextHandler(c echo.Context) error {
	type ingestRequest struct {
		Text     string         `json:"text" validate:"required"`
		Metadata map[string]any `json:"metadata"`
	}

	type ingestResponse struct {
		Message string                  `json:"message"`
		Result  *ingest.IngestionResult `json:"result,omitempty"`
	}

	data := new(ingestRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	result := app.Pipeline.IngestText(c.Request().Context(), data.Text, data.Metadata)

	return c.JSON(http.StatusOK, ingestResponse{
		Message: "Text ingested successfully",
		Result:  &result,
	})
}
