package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client implements Store against a Neo4j server using the official
// driver. One session is opened per unit of work and released with the
// surrounding call.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// NewClientParams contains connection configuration for a graph Client.
type NewClientParams struct {
	URI      string
	Username string
	Password string
	Database string

	QueryTimeout time.Duration
}

// NewClient connects to Neo4j and verifies connectivity before returning.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	timeout := params.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	vCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	return &Client{
		driver:   driver,
		database: params.Database,
		timeout:  timeout,
	}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

// IsHealthy reports whether the Neo4j server is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	if c.driver == nil {
		return false
	}
	hCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.driver.VerifyConnectivity(hCtx) == nil
}

// MergeNode upserts a node keyed on matchProps. onCreate properties apply
// only when the node is first created, onMatch properties on every
// subsequent merge.
func (c *Client) MergeNode(
	ctx context.Context,
	label string,
	matchProps map[string]any,
	onCreate map[string]any,
	onMatch map[string]any,
) (*Node, error) {
	query, params := buildMergeNodeQuery(label, matchProps, onCreate, onMatch)

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(rCtx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(rCtx)

	record, err := session.ExecuteWrite(rCtx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(rCtx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Single(rCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge node %s: %w", safeIdentifier(label), err)
	}

	rec, ok := record.(*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected merge result type %T", record)
	}
	raw, found := rec.Get("n")
	if !found {
		return nil, fmt.Errorf("merge result missing node")
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected node type %T", raw)
	}

	translated := translateNode(node)
	return &translated, nil
}

// MergeRelationship upserts the relationship keyed on (from, to, relType).
// Both endpoint nodes are merged first, so relationship ingestion is safe
// even when the node-merge step was skipped or failed upstream.
func (c *Client) MergeRelationship(
	ctx context.Context,
	fromLabel string,
	fromProps map[string]any,
	toLabel string,
	toProps map[string]any,
	relType string,
	relProps map[string]any,
) error {
	query, params := buildMergeRelationshipQuery(fromLabel, fromProps, toLabel, toProps, relType, relProps)

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(rCtx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(rCtx)

	_, err := session.ExecuteWrite(rCtx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(rCtx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(rCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to merge relationship %s: %w", safeIdentifier(relType), err)
	}
	return nil
}

// FindNeighbors returns all distinct nodes within maxHops of the start
// node, ordered by ascending distance. The start node is excluded from
// its own neighborhood.
func (c *Client) FindNeighbors(
	ctx context.Context,
	label string,
	matchProps map[string]any,
	maxHops int,
) ([]Neighbor, error) {
	query, params := buildFindNeighborsQuery(label, matchProps, maxHops)

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(rCtx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(rCtx)

	records, err := session.ExecuteRead(rCtx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(rCtx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(rCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find neighbors: %w", err)
	}

	recs, ok := records.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected neighbor result type %T", records)
	}

	neighbors := make([]Neighbor, 0, len(recs))
	for _, rec := range recs {
		rawNode, found := rec.Get("node")
		if !found {
			continue
		}
		node, ok := rawNode.(neo4j.Node)
		if !ok {
			continue
		}

		distance := 0
		if rawLen, found := rec.Get("path_length"); found {
			if l, ok := rawLen.(int64); ok {
				distance = int(l)
			}
		}

		neighbors = append(neighbors, Neighbor{
			Node:     translateNode(node),
			Distance: distance,
		})
	}
	return neighbors, nil
}

// FindPaths returns up to 10 paths between the two nodes, ordered by
// ascending hop count, bounded at maxHops.
func (c *Client) FindPaths(
	ctx context.Context,
	fromLabel string,
	fromProps map[string]any,
	toLabel string,
	toProps map[string]any,
	maxHops int,
) ([]Path, error) {
	query, params := buildFindPathsQuery(fromLabel, fromProps, toLabel, toProps, maxHops)

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(rCtx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(rCtx)

	records, err := session.ExecuteRead(rCtx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(rCtx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(rCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find paths: %w", err)
	}

	recs, ok := records.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected path result type %T", records)
	}

	paths := make([]Path, 0, len(recs))
	for _, rec := range recs {
		path := Path{}

		if rawNodes, found := rec.Get("nodes"); found {
			if nodeList, ok := rawNodes.([]any); ok {
				for _, rawNode := range nodeList {
					if node, ok := rawNode.(neo4j.Node); ok {
						path.Nodes = append(path.Nodes, translateNode(node))
					}
				}
			}
		}
		if rawRels, found := rec.Get("relationships"); found {
			if relList, ok := rawRels.([]any); ok {
				for _, rawRel := range relList {
					if rel, ok := rawRel.(string); ok {
						path.Relationships = append(path.Relationships, rel)
					}
				}
			}
		}
		if rawLen, found := rec.Get("path_length"); found {
			if l, ok := rawLen.(int64); ok {
				path.Length = int(l)
			}
		}

		paths = append(paths, path)
	}
	return paths, nil
}

func translateNode(node neo4j.Node) Node {
	label := ""
	if len(node.Labels) > 0 {
		label = node.Labels[0]
	}

	name := ""
	if raw, ok := node.Props["name"]; ok {
		if s, ok := raw.(string); ok {
			name = s
		}
	}

	return Node{
		Label: label,
		Name:  name,
		Props: node.Props,
	}
}
