package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/atlas-grag/atlas/pkg/ai"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// DBStore implements Store using PostgreSQL with pgvector for similarity
// search. Embeddings are produced through the AI client at upsert and
// query time; the documents table schema lives in migrations/.
type DBStore struct {
	conn     pgxIConn
	aiClient ai.GraphAIClient
	timeout  time.Duration
}

// NewDBStoreWithConnection creates a DBStore using an existing database
// connection. The AI client is used for generating embeddings.
func NewDBStoreWithConnection(conn pgxIConn, aiClient ai.GraphAIClient) *DBStore {
	return &DBStore{
		conn:     conn,
		aiClient: aiClient,
		timeout:  30 * time.Second,
	}
}

// Upsert embeds the text and writes the document under the given id.
// Re-upserting the same id replaces content, metadata and embedding
// instead of inserting a duplicate row.
func (s *DBStore) Upsert(
	ctx context.Context,
	collection string,
	id string,
	text string,
	metadata map[string]any,
) error {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", id, err)
	}

	rCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.conn.Exec(rCtx, `
		INSERT INTO documents (id, collection, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, id, collection, text, metadata, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", id, err)
	}
	return nil
}

// QuerySimilar embeds the query text and returns the k nearest documents
// in the collection by cosine distance, closest first.
func (s *DBStore) QuerySimilar(
	ctx context.Context,
	collection string,
	text string,
	k int,
) ([]Hit, error) {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	embed := pgvector.NewVector(embedding)

	rCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.conn.Query(rCtx, `
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM documents
		WHERE collection = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, embed, collection, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar documents: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, k)
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.ID, &hit.Text, &hit.Metadata, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan similarity row: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read similarity rows: %w", err)
	}
	return hits, nil
}

// Count returns the number of documents stored in the collection.
func (s *DBStore) Count(ctx context.Context, collection string) (int, error) {
	rCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var count int
	err := s.conn.QueryRow(rCtx,
		`SELECT count(*) FROM documents WHERE collection = $1`,
		collection,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// IsHealthy reports whether the database answers a trivial query.
func (s *DBStore) IsHealthy(ctx context.Context) bool {
	rCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var one int
	return s.conn.QueryRow(rCtx, "SELECT 1").Scan(&one) == nil
}
