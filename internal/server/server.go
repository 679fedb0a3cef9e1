package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlas-grag/atlas/internal/queue"
	mid "github.com/atlas-grag/atlas/internal/server/middleware"
	"github.com/atlas-grag/atlas/internal/storage"
	"github.com/atlas-grag/atlas/internal/util"
	"github.com/atlas-grag/atlas/pkg/ai"
	oai "github.com/atlas-grag/atlas/pkg/ai/ollama"
	gai "github.com/atlas-grag/atlas/pkg/ai/openai"
	"github.com/atlas-grag/atlas/pkg/extract"
	"github.com/atlas-grag/atlas/pkg/graph"
	"github.com/atlas-grag/atlas/pkg/ingest"
	"github.com/atlas-grag/atlas/pkg/logger"
	"github.com/atlas-grag/atlas/pkg/reason"
	"github.com/atlas-grag/atlas/pkg/retrieve"
	"github.com/atlas-grag/atlas/pkg/vector"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewAIClient builds the configured AI adapter from the environment.
// AI_ADAPTER selects between a local Ollama server and OpenAI-compatible
// endpoints.
func NewAIClient() ai.GraphAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			GenerationModel: util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			GenerationModel: util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
	}
}

// NewGraphClient connects to the Neo4j server configured in the
// environment.
func NewGraphClient(ctx context.Context) *graph.Client {
	client, err := graph.NewClient(ctx, graph.NewClientParams{
		URI:      util.GetEnv("NEO4J_URI"),
		Username: util.GetEnv("NEO4J_USER"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
		Database: util.GetEnv("NEO4J_DATABASE"),
	})
	if err != nil {
		logger.Fatal("Failed to connect to Neo4j", "err", err)
	}
	return client
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	queues := []string{queue.IngestQueue}
	_ = queue.SetupQueues(ch, queues)

	s3 := storage.NewClient(ctx)

	aiClient := NewAIClient()

	graphClient := NewGraphClient(ctx)
	defer graphClient.Close(context.Background())

	vectorStore := vector.NewDBStoreWithConnection(conn, aiClient)

	extractor := extract.NewExtractor(extract.NewExtractorParams{
		AI:        aiClient,
		Normalize: true,
		MaxTries:  int(util.GetEnvNumeric("EXTRACT_MAX_TRIES", 3)),
	})

	pipeline := ingest.NewPipeline(ingest.NewPipelineParams{
		Graph:      graphClient,
		Vector:     vectorStore,
		Extractor:  extractor,
		Objects:    s3,
		Collection: util.GetEnvString("VECTOR_COLLECTION", "documents"),
	})

	retriever := retrieve.NewHybridRetriever(retrieve.NewHybridRetrieverParams{
		Graph:      graphClient,
		Vector:     vectorStore,
		Extractor:  extractor,
		Collection: util.GetEnvString("VECTOR_COLLECTION", "documents"),
		TopK:       int(util.GetEnvNumeric("RETRIEVE_TOP_K", 5)),
		MaxHops:    int(util.GetEnvNumeric("RETRIEVE_MAX_HOPS", 3)),
	})

	chain := reason.NewReasoningChain(reason.NewReasoningChainParams{
		AI: aiClient,
	})

	app := &mid.App{
		DBConn:    conn,
		Queue:     ch,
		S3:        s3,
		AiClient:  aiClient,
		Graph:     graphClient,
		Vector:    vectorStore,
		Pipeline:  pipeline,
		Retriever: retriever,
		Chain:     chain,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("16M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
