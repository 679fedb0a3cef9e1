package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/atlas-grag/atlas/internal/storage"
	"github.com/atlas-grag/atlas/pkg/ai"
	"github.com/atlas-grag/atlas/pkg/graph"
	"github.com/atlas-grag/atlas/pkg/ingest"
	"github.com/atlas-grag/atlas/pkg/reason"
	"github.com/atlas-grag/atlas/pkg/retrieve"
	"github.com/atlas-grag/atlas/pkg/vector"
)

// App holds the shared clients and services handlers reach through the
// request context.
type App struct {
	DBConn    *pgxpool.Pool
	Queue     *amqp091.Channel
	S3        *storage.Client
	AiClient  ai.GraphAIClient
	Graph     graph.Store
	Vector    vector.Store
	Pipeline  *ingest.Pipeline
	Retriever *retrieve.HybridRetriever
	Chain     *reason.ReasoningChain
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
