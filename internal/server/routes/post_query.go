package routes

import (
	"net/http"

	"github.com/atlas-grag/atlas/internal/server/middleware"
	"github.com/atlas-grag/atlas/pkg/ai"
	"github.com/atlas-grag/atlas/pkg/logger"

	"github.com/labstack/echo/v4"
)

// QueryHandler runs hybrid retrieval over the stores and synthesizes an
// answer. Graph traversal and chain-of-thought reasoning default to on.
func QueryHandler(c echo.Context) error {
	type queryRequest struct {
		Question       string `json:"question" validate:"required"`
		IncludeGraph   *bool  `json:"include_graph"`
		ChainOfThought *bool  `json:"chain_of_thought"`
	}

	type queryResponse struct {
		Message      string           `json:"message"`
		Answer       string           `json:"answer,omitempty"`
		Entities     []string         `json:"entities,omitempty"`
		Reasoning    string           `json:"reasoning,omitempty"`
		GraphContext string           `json:"graph_context,omitempty"`
		Degraded     bool             `json:"degraded"`
		Metrics      *ai.ModelMetrics `json:"metrics,omitempty"`
	}

	data := new(queryRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	includeGraph := data.IncludeGraph == nil || *data.IncludeGraph
	chainOfThought := data.ChainOfThought == nil || *data.ChainOfThought

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	result, err := app.Retriever.Retrieve(ctx, data.Question, includeGraph)
	if err != nil {
		logger.Error("[Query] retrieval error", "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	response, err := app.Chain.Reason(ctx, result, data.Question, chainOfThought)
	if err != nil {
		logger.Error("[Query] reasoning error", "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	metrics := app.AiClient.GetMetrics()
	return c.JSON(http.StatusOK, queryResponse{
		Message:      "Query answered successfully",
		Answer:       response.Answer,
		Entities:     response.Entities,
		Reasoning:    response.Reasoning,
		GraphContext: result.GraphContext,
		Degraded:     result.Degraded,
		Metrics:      &metrics,
	})
}
