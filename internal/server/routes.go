package server

import (
	"github.com/atlas-grag/atlas/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", routes.GetHealthHandler)

	apiRoutes := e.Group("/api")

	apiRoutes.POST("/query", routes.QueryHandler)
	apiRoutes.POST("/ingest", routes.IngestTextHandler)
	apiRoutes.POST("/ingest/file", routes.IngestFileHandler)
	apiRoutes.GET("/documents/count", routes.GetDocumentCountHandler)
}
