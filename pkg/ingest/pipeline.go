package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atlas-grag/atlas/pkg/extract"
	"github.com/atlas-grag/atlas/pkg/graph"
	"github.com/atlas-grag/atlas/pkg/logger"
	"github.com/atlas-grag/atlas/pkg/vector"

	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 10

// TripleExtractor extracts typed triples from one unit of source text.
type TripleExtractor interface {
	Extract(ctx context.Context, text string) extract.ExtractionResult
}

// ObjectStore fetches file contents from object storage for s3:// paths.
type ObjectStore interface {
	GetFile(ctx context.Context, bucket string, key string) ([]byte, error)
}

// Pipeline turns raw text into graph nodes, relationships and vector
// documents. Graph and vector writes for the same text are independent:
// a failed merge is recorded and skipped, never fatal for the document.
type Pipeline struct {
	graph      graph.Store
	vector     vector.Store
	extractor  TripleExtractor
	objects    ObjectStore
	collection string
}

// NewPipelineParams contains configuration for creating a Pipeline.
// Objects may be nil when s3:// paths are not used.
type NewPipelineParams struct {
	Graph      graph.Store
	Vector     vector.Store
	Extractor  TripleExtractor
	Objects    ObjectStore
	Collection string
}

// NewPipeline creates a Pipeline. Collection defaults to "documents".
func NewPipeline(params NewPipelineParams) *Pipeline {
	collection := params.Collection
	if collection == "" {
		collection = "documents"
	}
	return &Pipeline{
		graph:      params.Graph,
		vector:     params.Vector,
		extractor:  params.Extractor,
		objects:    params.Objects,
		collection: collection,
	}
}

// DocumentID derives the stable document id for a piece of text. The
// same text always maps to the same id, so re-ingestion overwrites
// instead of duplicating.
func DocumentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "doc_" + hex.EncodeToString(sum[:])[:12]
}

// IngestText extracts triples from the text, merges them into the graph
// and stores the text as a vector document. Extraction and merge errors
// are accumulated in the result; only the counters reflect what actually
// landed.
func (p *Pipeline) IngestText(
	ctx context.Context,
	text string,
	metadata map[string]any,
) IngestionResult {
	result := newIngestionResult()

	extraction := p.extractor.Extract(ctx, text)
	if extraction.Err != nil {
		logger.Warn("Extraction failed, storing document without graph facts", "error", extraction.Err)
		result.Errors = append(result.Errors, fmt.Sprintf("extraction: %v", extraction.Err))
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, triple := range extraction.Triples {
		for _, end := range []struct {
			label string
			name  string
		}{
			{triple.SubjectType, triple.Subject},
			{triple.ObjectType, triple.Object},
		} {
			_, err := p.graph.MergeNode(ctx, end.label,
				map[string]any{"name": end.name},
				map[string]any{"first_seen": now},
				map[string]any{"last_seen": now},
			)
			if err != nil {
				logger.Error("Failed to merge node", "name", end.name, "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("merge node %s: %v", end.name, err))
				continue
			}
			result.NodesCreated++
		}

		err := p.graph.MergeRelationship(ctx,
			triple.SubjectType, map[string]any{"name": triple.Subject},
			triple.ObjectType, map[string]any{"name": triple.Object},
			triple.Predicate, triple.Properties,
		)
		if err != nil {
			logger.Error("Failed to merge relationship",
				"subject", triple.Subject,
				"predicate", triple.Predicate,
				"object", triple.Object,
				"error", err,
			)
			result.Errors = append(result.Errors, fmt.Sprintf(
				"merge relationship %s -[%s]-> %s: %v",
				triple.Subject, triple.Predicate, triple.Object, err,
			))
			continue
		}
		result.RelationshipsCreated++
	}

	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["source"] = "ingestion"

	if err := p.vector.Upsert(ctx, p.collection, DocumentID(text), text, meta); err != nil {
		logger.Error("Failed to store document", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("store document: %v", err))
	} else {
		result.DocumentsAdded = 1
	}

	return result
}

// IngestFile reads a local or s3:// file and ingests each non-blank line
// as one document, running up to batchSize lines concurrently. The line
// number among non-blank lines is attached as metadata. An unreadable
// file is the only fatal failure.
func (p *Pipeline) IngestFile(ctx context.Context, path string, batchSize int) IngestionResult {
	result := newIngestionResult()
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	content, err := p.readFile(ctx, path)
	if err != nil {
		logger.Error("Failed to read ingestion file", "path", path, "error", err)
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("read file %s: %v", path, err))
		return result
	}

	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	logger.Info("Ingesting file", "path", path, "lines", len(lines), "batch_size", batchSize)

	lineResults := make([]IngestionResult, len(lines))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)
	for i, line := range lines {
		g.Go(func() error {
			lineResults[i] = p.IngestText(gCtx, line, map[string]any{
				"file":        path,
				"line_number": i + 1,
			})
			return nil
		})
	}
	// Workers never return errors; failures live in the per-line results.
	_ = g.Wait()

	for _, lr := range lineResults {
		result.merge(lr)
	}
	return result
}

func (p *Pipeline) readFile(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "s3://") {
		if p.objects == nil {
			return nil, fmt.Errorf("no object storage configured for path %s", path)
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(path, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 path %s", path)
		}
		return p.objects.GetFile(ctx, bucket, key)
	}
	return os.ReadFile(path)
}
