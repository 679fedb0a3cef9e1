package routes

import (
	"encoding/json"
	"net/http"

	"github.com/atlas-grag/atlas/internal/queue"
	"github.com/atlas-grag/atlas/internal/server/middleware"
	"github.com/atlas-grag/atlas/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IngestFileHandler enqueues a file ingestion job for the worker and
// returns immediately.
func IngestFileHandler(c echo.Context) error {
	type ingestFileRequest struct {
		Path      string `json:"path" validate:"required"`
		BatchSize int    `json:"batch_size"`
	}

	type ingestFileResponse struct {
		Message string `json:"message"`
		Path    string `json:"path,omitempty"`
	}

	data := new(ingestFileRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestFileResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestFileResponse{
			Message: "Invalid request body",
		})
	}

	msg := queue.IngestFileMsg{
		Path:      data.Path,
		BatchSize: data.BatchSize,
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestFileResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.IngestQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to ingest_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestFileResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, ingestFileResponse{
		Message: "File queued for ingestion",
		Path:    data.Path,
	})
}
