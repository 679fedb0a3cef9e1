package routes

import (
	"net/http"

	"github.com/atlas-grag/atlas/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetHealthHandler reports per-dependency liveness. The response is 200
// only when every dependency answers its probe.
func GetHealthHandler(c echo.Context) error {
	type healthResponse struct {
		Graph      bool `json:"graph"`
		Vector     bool `json:"vector"`
		Generation bool `json:"generation"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	resp := healthResponse{
		Graph:      app.Graph.IsHealthy(ctx),
		Vector:     app.Vector.IsHealthy(ctx),
		Generation: app.AiClient.IsHealthy(ctx),
	}

	status := http.StatusOK
	if !resp.Graph || !resp.Vector || !resp.Generation {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
