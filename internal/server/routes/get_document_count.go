package routes

import (
	"net/http"

	"github.com/atlas-grag/atlas/internal/server/middleware"
	"github.com/atlas-grag/atlas/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetDocumentCountHandler returns the number of documents stored in a
// collection. The collection query parameter defaults to "documents".
func GetDocumentCountHandler(c echo.Context) error {
	type countResponse struct {
		Message    string `json:"message"`
		Collection string `json:"collection,omitempty"`
		Count      int    `json:"count"`
	}

	collection := c.QueryParam("collection")
	if collection == "" {
		collection = "documents"
	}

	app := c.(*middleware.AppContext).App
	count, err := app.Vector.Count(c.Request().Context(), collection)
	if err != nil {
		logger.Error("Failed to count documents", "collection", collection, "err", err)
		return c.JSON(http.StatusInternalServerError, countResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, countResponse{
		Message:    "Document count retrieved successfully",
		Collection: collection,
		Count:      count,
	})
}
