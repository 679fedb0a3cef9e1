package graph

import (
	"fmt"
	"sort"
	"strings"
)

// maxReturnedPaths bounds FindPaths output to keep responses and prompt
// context small.
const maxReturnedPaths = 10

// safeIdentifier reduces a label or relationship type to characters that
// can be interpolated into Cypher. Labels and predicates originate from
// model output, so they are never trusted as-is.
func safeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Entity"
	}
	return b.String()
}

// propPattern renders `{name: $p_name, ...}` with deterministic key order
// and returns the matching parameter map under the given prefix.
func propPattern(prefix string, props map[string]any) (string, map[string]any) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	params := make(map[string]any, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: $%s%s", k, prefix, k))
		params[prefix+k] = props[k]
	}
	return "{" + strings.Join(parts, ", ") + "}", params
}

func setClause(target string, prefix string, props map[string]any) (string, map[string]any) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	params := make(map[string]any, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s.%s = $%s%s", target, k, prefix, k))
		params[prefix+k] = props[k]
	}
	return strings.Join(parts, ", "), params
}

func buildMergeNodeQuery(
	label string,
	matchProps map[string]any,
	onCreate map[string]any,
	onMatch map[string]any,
) (string, map[string]any) {
	pattern, params := propPattern("", matchProps)
	query := fmt.Sprintf("MERGE (n:%s %s)", safeIdentifier(label), pattern)

	if len(onCreate) > 0 {
		clause, createParams := setClause("n", "create_", onCreate)
		query += " ON CREATE SET " + clause
		for k, v := range createParams {
			params[k] = v
		}
	}
	if len(onMatch) > 0 {
		clause, matchParams := setClause("n", "match_", onMatch)
		query += " ON MATCH SET " + clause
		for k, v := range matchParams {
			params[k] = v
		}
	}

	query += " RETURN n"
	return query, params
}

func buildMergeRelationshipQuery(
	fromLabel string,
	fromProps map[string]any,
	toLabel string,
	toProps map[string]any,
	relType string,
	relProps map[string]any,
) (string, map[string]any) {
	fromPattern, params := propPattern("from_", fromProps)
	toPattern, toParams := propPattern("to_", toProps)
	for k, v := range toParams {
		params[k] = v
	}

	query := fmt.Sprintf(
		"MERGE (a:%s %s)\nMERGE (b:%s %s)\nMERGE (a)-[r:%s]->(b)",
		safeIdentifier(fromLabel), fromPattern,
		safeIdentifier(toLabel), toPattern,
		safeIdentifier(relType),
	)

	if len(relProps) > 0 {
		clause, relParams := setClause("r", "rel_", relProps)
		query += "\nSET " + clause
		for k, v := range relParams {
			params[k] = v
		}
	}

	query += "\nRETURN r"
	return query, params
}

func buildFindNeighborsQuery(
	label string,
	matchProps map[string]any,
	maxHops int,
) (string, map[string]any) {
	pattern, params := propPattern("", matchProps)
	query := fmt.Sprintf(
		"MATCH (start:%s %s)\n"+
			"MATCH path = (start)-[*1..%d]-(neighbor)\n"+
			"WHERE neighbor <> start\n"+
			"RETURN DISTINCT neighbor AS node, length(path) AS path_length\n"+
			"ORDER BY path_length",
		safeIdentifier(label), pattern, maxHops,
	)
	return query, params
}

func buildFindPathsQuery(
	fromLabel string,
	fromProps map[string]any,
	toLabel string,
	toProps map[string]any,
	maxHops int,
) (string, map[string]any) {
	fromPattern, params := propPattern("from_", fromProps)
	toPattern, toParams := propPattern("to_", toProps)
	for k, v := range toParams {
		params[k] = v
	}

	query := fmt.Sprintf(
		"MATCH path = (a:%s %s)-[*1..%d]-(b:%s %s)\n"+
			"RETURN [n in nodes(path) | n] AS nodes,\n"+
			"       [r in relationships(path) | type(r)] AS relationships,\n"+
			"       length(path) AS path_length\n"+
			"ORDER BY path_length\n"+
			"LIMIT %d",
		safeIdentifier(fromLabel), fromPattern, maxHops,
		safeIdentifier(toLabel), toPattern,
		maxReturnedPaths,
	)
	return query, params
}
