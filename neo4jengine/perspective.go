package neo4jengine

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	tempograph "github.com/go-tempograph/go-tempograph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// sweepPerspective collects the state of every vertex visible at p, ordered
// by GlobalID.
//
// A vertex is visible when any of its update stamps falls inside the
// perspective's window, and only edges whose stamps and endpoints are both
// visible contribute to degree counts. Property values report the most recent
// value stored on the node, as the engine does not retain per-property
// history.
func sweepPerspective(ctx context.Context, s neo4j.SessionWithContext, p tempograph.Perspective) ([]tempograph.VertexState, error) {
	start, end := windowBounds(p)

	states, err := s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (v:Vertex)
			WHERE any(t IN v._times WHERE t > $start AND t <= $end)
			OPTIONAL MATCH (v)-[e:LINK]-(o:Vertex)
			WHERE any(t IN e._times WHERE t > $start AND t <= $end)
			  AND any(t IN o._times WHERE t > $start AND t <= $end)
			WITH v,
			     count(DISTINCT e) AS degree,
			     count(DISTINCT CASE WHEN startNode(e) = v THEN e END) AS outDegree,
			     count(DISTINCT CASE WHEN endNode(e) = v THEN e END) AS inDegree
			RETURN v AS vertex, degree, outDegree, inDegree
		`
		result, err := tx.Run(ctx, query, map[string]any{
			"start": start,
			"end":   end,
		})
		if err != nil {
			return nil, fmt.Errorf("run cypher: %w", err)
		}

		var states []tempograph.VertexState
		for result.Next(ctx) {
			state, err := parseVertexState(result.Record())
			if err != nil {
				return nil, fmt.Errorf("vertex #%v: %w", len(states), err)
			}
			states = append(states, state)
		}
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("consume result: %w", err)
		}
		return states, nil
	})
	if err != nil {
		return nil, err
	}

	// The database orders _gid values as signed integers, which disagrees
	// with GlobalID order for identifiers above the sign bit.
	ordered := states.([]tempograph.VertexState)
	slices.SortFunc(ordered, func(a, b tempograph.VertexState) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return ordered, nil
}

// parseVertexState translates a sweep query record into a VertexState,
// splitting the node's internal bookkeeping fields from its business
// properties.
func parseVertexState(record *neo4j.Record) (state tempograph.VertexState, err error) {
	node, err := getRecordProperty[neo4j.Node](record, "vertex")
	if err != nil {
		return state, fmt.Errorf("get vertex: %w", err)
	}
	degree, err := getRecordProperty[int64](record, "degree")
	if err != nil {
		return state, fmt.Errorf("get degree: %w", err)
	}
	outDegree, err := getRecordProperty[int64](record, "outDegree")
	if err != nil {
		return state, fmt.Errorf("get outDegree: %w", err)
	}
	inDegree, err := getRecordProperty[int64](record, "inDegree")
	if err != nil {
		return state, fmt.Errorf("get inDegree: %w", err)
	}

	gid, ok := node.Props["_gid"].(int64)
	if !ok {
		return state, fmt.Errorf("get _gid: %w", unexpectedPropertyTypeError{Type: reflect.TypeOf(node.Props["_gid"])})
	}

	state = tempograph.VertexState{
		ID:         gidFromStored(gid),
		Degree:     int(degree),
		OutDegree:  int(outDegree),
		InDegree:   int(inDegree),
		Properties: make(map[string]any),
	}
	// Bookkeeping fields share a leading underscore so business properties
	// can never collide with them.
	if name, ok := node.Props["_name"].(string); ok {
		state.Name = name
	}
	if vtype, ok := node.Props["_vtype"].(string); ok {
		state.Type = vtype
	}
	for k, v := range node.Props {
		if strings.HasPrefix(k, "_") {
			continue
		}
		state.Properties[k] = v
	}
	return state, nil
}

// queryLatestTime scans all vertex histories for the greatest update
// timestamp. Edge updates stamp both endpoint vertices, so vertex histories
// alone cover the whole graph.
func queryLatestTime(ctx context.Context, s neo4j.SessionWithContext) (t int64, ok bool, err error) {
	latest, err := s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (v:Vertex)
			UNWIND v._times AS t
			RETURN max(t) AS latest
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("run cypher: %w", err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("query single result: %w", err)
		}
		// Aggregating over an empty graph yields a null, which stands for
		// "no updates yet" rather than an error.
		prop, exists := record.Get("latest")
		if !exists {
			return nil, fmt.Errorf("get latest: %w", errPropertyNotFound)
		}
		return prop, nil
	})
	if err != nil {
		return 0, false, err
	}
	if latest == nil {
		return 0, false, nil
	}
	v, isInt := latest.(int64)
	if !isInt {
		return 0, false, fmt.Errorf("get latest: %w", unexpectedPropertyTypeError{Type: reflect.TypeOf(latest)})
	}
	return v, true, nil
}
