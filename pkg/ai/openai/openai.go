package openai

import (
	"context"
	"sync"
	"time"

	"github.com/atlas-grag/atlas/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// GraphOpenAIClient is a client for interacting with AI models used in the
// graph RAG system. It manages separate OpenAI clients for embeddings
// and chat/completion tasks.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	embeddingModel  string
	generationModel string
	extractionModel string

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	timeoutMin int

	chatLock      *semaphore.Weighted
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for creating
// a new GraphOpenAIClient.
//
// EmbeddingModel specifies the model used for embeddings.
// GenerationModel specifies the model used for free-form generation.
// ExtractionModel specifies the model used for structured extraction.
// EmbeddingURL and EmbeddingKey configure the embedding API endpoint.
// ChatURL and ChatKey configure the chat/completion API endpoint.
type NewGraphOpenAIClientParams struct {
	EmbeddingModel  string
	GenerationModel string
	ExtractionModel string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	RequestTimeoutMin     int
	MaxConcurrentRequests int64
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient configured
// with the provided parameters. It initializes separate OpenAI clients for
// embeddings and chat/completion tasks.
//
// Example:
//
//	params := openai.NewGraphOpenAIClientParams{
//		EmbeddingModel:  "text-embedding-3-small",
//		GenerationModel: "gpt-4o-mini",
//		ExtractionModel: "gpt-4o-mini",
//		ChatKey:         os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:    os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewGraphOpenAIClient(params)
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	timeoutMin := params.RequestTimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &GraphOpenAIClient{
		embeddingModel:  params.EmbeddingModel,
		generationModel: params.GenerationModel,
		extractionModel: params.ExtractionModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin: timeoutMin,

		chatLock:      semaphore.NewWeighted(maxConcurrent),
		embeddingLock: semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// IsHealthy reports whether the chat endpoint answers a model listing request.
func (c *GraphOpenAIClient) IsHealthy(ctx context.Context) bool {
	if c.ChatClient == nil {
		return false
	}
	rCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.ChatClient.Models.List(rCtx)
	return err == nil
}
