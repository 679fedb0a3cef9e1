package graph

import (
	"context"
	"fmt"
	"strings"
)

// Store is the graph storage contract used by ingestion and retrieval.
// Merge operations are idempotent upserts keyed on the match properties;
// traversal operations return deduplicated results ordered by hop count.
type Store interface {
	MergeNode(
		ctx context.Context,
		label string,
		matchProps map[string]any,
		onCreate map[string]any,
		onMatch map[string]any,
	) (*Node, error)
	MergeRelationship(
		ctx context.Context,
		fromLabel string,
		fromProps map[string]any,
		toLabel string,
		toProps map[string]any,
		relType string,
		relProps map[string]any,
	) error
	FindNeighbors(
		ctx context.Context,
		label string,
		matchProps map[string]any,
		maxHops int,
	) ([]Neighbor, error)
	FindPaths(
		ctx context.Context,
		fromLabel string,
		fromProps map[string]any,
		toLabel string,
		toProps map[string]any,
		maxHops int,
	) ([]Path, error)
	IsHealthy(ctx context.Context) bool
	Close(ctx context.Context) error
}

// Node is the boundary representation of a graph node, translated from
// driver records on ingress so callers never touch driver types.
type Node struct {
	Label string
	Name  string
	Props map[string]any
}

// Neighbor is a node reachable from a traversal start node, annotated
// with its distance in hops.
type Neighbor struct {
	Node     Node
	Distance int
}

// Path is an ordered sequence of nodes and the relationship types
// connecting them. Length is the hop count and always equals
// len(Relationships).
type Path struct {
	Nodes         []Node
	Relationships []string
	Length        int
}

// String renders the path in its canonical form, e.g.
// "techflow -[MANUFACTURES]-> flowchips -[STORED_IN]-> singapore".
func (p Path) String() string {
	if len(p.Nodes) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(p.Nodes[0].Name)
	for i, rel := range p.Relationships {
		if i+1 >= len(p.Nodes) {
			break
		}
		fmt.Fprintf(&b, " -[%s]-> %s", rel, p.Nodes[i+1].Name)
	}
	return b.String()
}
