package retrieve

import (
	"fmt"
	"strings"

	"github.com/atlas-grag/atlas/pkg/graph"
	"github.com/atlas-grag/atlas/pkg/vector"
)

// RetrievalResult is the fused output of one retrieval pass, immutable
// after construction. GraphContext is the canonical rendering of
// GraphPaths; the combined context handed to answer synthesis is
// precomputed here so downstream consumers never re-derive it.
type RetrievalResult struct {
	Query        string       `json:"query"`
	Entities     []string     `json:"entities"`
	VectorChunks []vector.Hit `json:"vector_chunks"`
	GraphPaths   []graph.Path `json:"graph_paths"`
	GraphContext string       `json:"graph_context"`
	Degraded     bool         `json:"degraded"`

	combined string
}

func newRetrievalResult(
	query string,
	entities []string,
	chunks []vector.Hit,
	paths []graph.Path,
	degraded bool,
) *RetrievalResult {
	result := &RetrievalResult{
		Query:        query,
		Entities:     entities,
		VectorChunks: chunks,
		GraphPaths:   paths,
		GraphContext: renderPaths(paths),
		Degraded:     degraded,
	}
	result.combined = buildCombinedContext(result.GraphContext, chunks)
	return result
}

// CombinedContext returns the fused retrieval context, graph evidence
// first, then vector chunks. Computed once at construction.
func (r *RetrievalResult) CombinedContext() string {
	return r.combined
}

func renderPaths(paths []graph.Path) string {
	if len(paths) == 0 {
		return ""
	}
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, p.String())
	}
	return strings.Join(lines, "\n")
}

func buildCombinedContext(graphContext string, chunks []vector.Hit) string {
	var b strings.Builder
	if graphContext != "" {
		b.WriteString("Knowledge graph paths:\n")
		b.WriteString(graphContext)
	}
	if len(chunks) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Retrieved documents:\n")
		for i, chunk := range chunks {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%d] %s", i+1, chunk.Text)
		}
	}
	return b.String()
}
