package vector

import "context"

// Hit is one similarity search result, translated from database rows on
// ingress. Distance is the cosine distance to the query embedding; lower
// is more similar.
type Hit struct {
	ID       string
	Text     string
	Distance float64
	Metadata map[string]any
}

// Store is the vector storage contract used by ingestion and retrieval.
// Upsert is idempotent on the document id; QuerySimilar returns hits
// ordered by ascending distance.
type Store interface {
	Upsert(ctx context.Context, collection string, id string, text string, metadata map[string]any) error
	QuerySimilar(ctx context.Context, collection string, text string, k int) ([]Hit, error)
	Count(ctx context.Context, collection string) (int, error)
	IsHealthy(ctx context.Context) bool
}
