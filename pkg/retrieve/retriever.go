package retrieve

import (
	"context"
	"fmt"
	"sort"

	"github.com/atlas-grag/atlas/pkg/extract"
	"github.com/atlas-grag/atlas/pkg/graph"
	"github.com/atlas-grag/atlas/pkg/logger"
	"github.com/atlas-grag/atlas/pkg/vector"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTopK         = 5
	defaultMaxHops      = 3
	defaultNeighborHops = 2

	// With more than a handful of query entities the all-pairs set
	// grows quadratically, so path lookups are capped.
	maxEntityPairs = 10
)

// TripleExtractor extracts typed triples from one unit of source text.
type TripleExtractor interface {
	Extract(ctx context.Context, text string) extract.ExtractionResult
}

// HybridRetriever fuses graph traversal and vector similarity search
// into one retrieval context. Graph unavailability degrades the result
// to vector-only instead of failing the call.
type HybridRetriever struct {
	graph        graph.Store
	vector       vector.Store
	extractor    TripleExtractor
	collection   string
	topK         int
	maxHops      int
	neighborHops int
}

// NewHybridRetrieverParams contains configuration for creating a
// HybridRetriever. TopK defaults to 5, MaxHops to 3, NeighborHops to 2
// and Collection to "documents".
type NewHybridRetrieverParams struct {
	Graph        graph.Store
	Vector       vector.Store
	Extractor    TripleExtractor
	Collection   string
	TopK         int
	MaxHops      int
	NeighborHops int
}

// NewHybridRetriever creates a HybridRetriever.
func NewHybridRetriever(params NewHybridRetrieverParams) *HybridRetriever {
	r := &HybridRetriever{
		graph:        params.Graph,
		vector:       params.Vector,
		extractor:    params.Extractor,
		collection:   params.Collection,
		topK:         params.TopK,
		maxHops:      params.MaxHops,
		neighborHops: params.NeighborHops,
	}
	if r.collection == "" {
		r.collection = "documents"
	}
	if r.topK <= 0 {
		r.topK = defaultTopK
	}
	if r.maxHops <= 0 {
		r.maxHops = defaultMaxHops
	}
	if r.neighborHops <= 0 {
		r.neighborHops = defaultNeighborHops
	}
	return r
}

type queryEntity struct {
	name  string
	label string
}

// Retrieve runs vector similarity search and, when includeGraph is set,
// graph traversal over entities extracted from the query. The two
// branches run concurrently. A graph-side failure is logged and flagged
// on the result; a vector-side failure fails the call.
func (r *HybridRetriever) Retrieve(
	ctx context.Context,
	query string,
	includeGraph bool,
) (*RetrievalResult, error) {
	var (
		chunks   []vector.Hit
		entities []queryEntity
		paths    []graph.Path
		degraded bool
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.vector.QuerySimilar(gCtx, r.collection, query, r.topK)
		if err != nil {
			return fmt.Errorf("vector search failed: %w", err)
		}
		chunks = hits
		return nil
	})
	if includeGraph {
		g.Go(func() error {
			extraction := r.extractor.Extract(gCtx, query)
			if extraction.Err != nil {
				logger.Warn("Query entity extraction failed, falling back to vector-only retrieval",
					"error", extraction.Err)
				degraded = true
				return nil
			}
			entities = queryEntities(extraction.Triples)
			if len(entities) == 0 {
				return nil
			}

			found, err := r.traverse(gCtx, entities)
			if err != nil {
				logger.Warn("Graph traversal failed, falling back to vector-only retrieval",
					"error", err)
				degraded = true
				return nil
			}
			paths = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.name)
	}
	return newRetrievalResult(query, names, chunks, paths, degraded), nil
}

// queryEntities collects the distinct normalized entity names mentioned
// in the extracted triples, in first-extracted order.
func queryEntities(triples []extract.Triple) []queryEntity {
	seen := make(map[string]bool)
	var entities []queryEntity
	for _, t := range triples {
		for _, e := range []queryEntity{
			{name: t.Subject, label: t.SubjectType},
			{name: t.Object, label: t.ObjectType},
		} {
			if e.name == "" || seen[e.name] {
				continue
			}
			seen[e.name] = true
			entities = append(entities, e)
		}
	}
	return entities
}

// traverse queries connecting paths between entity pairs, or the
// neighborhood of a lone entity, and returns the results ordered by
// ascending hop count.
func (r *HybridRetriever) traverse(ctx context.Context, entities []queryEntity) ([]graph.Path, error) {
	if len(entities) == 1 {
		return r.neighborhood(ctx, entities[0])
	}

	var paths []graph.Path
	for _, pair := range entityPairs(entities) {
		found, err := r.graph.FindPaths(ctx,
			pair[0].label, map[string]any{"name": pair[0].name},
			pair[1].label, map[string]any{"name": pair[1].name},
			r.maxHops,
		)
		if err != nil {
			return nil, fmt.Errorf("path query %s..%s failed: %w", pair[0].name, pair[1].name, err)
		}
		paths = append(paths, found...)
	}
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].Length < paths[j].Length })
	return paths, nil
}

func (r *HybridRetriever) neighborhood(ctx context.Context, entity queryEntity) ([]graph.Path, error) {
	neighbors, err := r.graph.FindNeighbors(ctx,
		entity.label, map[string]any{"name": entity.name}, r.neighborHops)
	if err != nil {
		return nil, fmt.Errorf("neighbor query for %s failed: %w", entity.name, err)
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	start := graph.Node{Label: entity.label, Name: entity.name}
	paths := make([]graph.Path, 0, len(neighbors))
	for _, n := range neighbors {
		paths = append(paths, graph.Path{
			Nodes:         []graph.Node{start, n.Node},
			Relationships: []string{fmt.Sprintf("WITHIN_%d_HOPS", n.Distance)},
			Length:        1,
		})
	}
	return paths, nil
}

// entityPairs returns every unordered pair of distinct entities in
// first-extracted order, capped at maxEntityPairs.
func entityPairs(entities []queryEntity) [][2]queryEntity {
	var pairs [][2]queryEntity
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			if len(pairs) >= maxEntityPairs {
				return pairs
			}
			pairs = append(pairs, [2]queryEntity{entities[i], entities[j]})
		}
	}
	return pairs
}
