package neo4jengine

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/danielorbach/go-component"
	tempograph "github.com/go-tempograph/go-tempograph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// An updateWriter appends temporal updates to the graph within a single neo4j
// transaction.
//
// It translates between tempograph.Update and query parameters, and relies on
// carefully crafted Cypher queries to append update stamps without rewriting
// an entity's history.
type updateWriter struct {
	tx neo4j.ManagedTransaction
}

// appendVertexUpdate upserts the vertex identified by u.Src and appends the
// update's stamp to its history.
//
// Immutable properties keep their first recorded value. Recording an
// immutable property again with a different value fails the update, and with
// it the enclosing transaction, so the conflicting stamp never lands.
func (w updateWriter) appendVertexUpdate(ctx context.Context, u tempograph.Update) (err error) {
	props, immutable := splitProperties(u.Properties)

	if err := w.checkImmutableConflicts(ctx, `
		OPTIONAL MATCH (v:Vertex {_gid: $gid})
		RETURN [k IN keys($immutable) WHERE v IS NOT NULL AND k IN keys(properties(v)) AND v[k] <> $immutable[k]] AS conflicts
	`, map[string]any{
		"gid":       gidParam(u.Src),
		"immutable": immutable,
	}); err != nil {
		return err
	}

	name, _ := immutable["name"].(string)
	// An empty $name or $vtype means the update does not carry one, so the
	// stored value stays untouched.
	query := `
		MERGE (v:Vertex {_gid: $gid})
		ON CREATE SET v._created_at = datetime()
		SET v += $props,
		    v._name = CASE WHEN $name = '' THEN v._name ELSE $name END,
		    v._vtype = CASE WHEN $vtype = '' THEN v._vtype ELSE $vtype END,
		    v._times = coalesce(v._times, []) + $time,
		    v._indices = coalesce(v._indices, []) + $index,
		    v._last_modified = datetime()
		RETURN count(v) AS vertices
	`
	result, err := w.tx.Run(ctx, query, map[string]any{
		"gid":   gidParam(u.Src),
		"props": props,
		"name":  name,
		"vtype": u.EntityType,
		"time":  u.Time,
		"index": u.SecondaryIndex,
	})
	if err != nil {
		return fmt.Errorf("run cypher: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("query single result: %w", err)
	}

	vertices, err := getRecordProperty[int64](record, "vertices")
	if err != nil {
		return fmt.Errorf("get vertices: %w", err)
	}
	// A single GlobalID is represented by a single node in the underlying
	// graph, so appending an update touches exactly one node (created on its
	// first update, matched thereafter). If the query modifies any other
	// number of nodes, the underlying graph has lost its integrity and we
	// cannot continue to operate on it.
	if vertices != 1 {
		panicWithCorruptedGraph(ctx, fmt.Sprintf("vertex update modified %v nodes instead of 1", vertices))
	}
	return nil
}

// appendEdgeUpdate upserts the u.Src->u.Dst edge and appends the update's
// stamp to its history and to both endpoints, creating either endpoint if it
// has never been updated directly. Stamping the endpoints makes them visible
// at the edge's time, matching how an edge addition implies its vertices
// exist.
func (w updateWriter) appendEdgeUpdate(ctx context.Context, u tempograph.Update) (err error) {
	props, immutable := splitProperties(u.Properties)

	if err := w.checkImmutableConflicts(ctx, `
		OPTIONAL MATCH (:Vertex {_gid: $from})-[e:LINK]->(:Vertex {_gid: $to})
		RETURN [k IN keys($immutable) WHERE e IS NOT NULL AND k IN keys(properties(e)) AND e[k] <> $immutable[k]] AS conflicts
	`, map[string]any{
		"from":      gidParam(u.Src),
		"to":        gidParam(u.Dst),
		"immutable": immutable,
	}); err != nil {
		return err
	}

	query := `
		MERGE (s:Vertex {_gid: $from})
		ON CREATE SET s._created_at = datetime()
		SET s._times = coalesce(s._times, []) + $time,
		    s._indices = coalesce(s._indices, []) + $index,
		    s._last_modified = datetime()

		MERGE (d:Vertex {_gid: $to})
		ON CREATE SET d._created_at = datetime()
		SET d._times = coalesce(d._times, []) + $time,
		    d._indices = coalesce(d._indices, []) + $index,
		    d._last_modified = datetime()

		MERGE (s)-[e:LINK]->(d)
		ON CREATE SET e._created_at = datetime()
		SET e += $props,
		    e._etype = CASE WHEN $etype = '' THEN e._etype ELSE $etype END,
		    e._times = coalesce(e._times, []) + $time,
		    e._indices = coalesce(e._indices, []) + $index,
		    e._last_modified = datetime()

		RETURN count(e) AS edges
	`
	result, err := w.tx.Run(ctx, query, map[string]any{
		"from":  gidParam(u.Src),
		"to":    gidParam(u.Dst),
		"props": props,
		"etype": u.EntityType,
		"time":  u.Time,
		"index": u.SecondaryIndex,
	})
	if err != nil {
		return fmt.Errorf("run cypher: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("query single result: %w", err)
	}

	edges, err := getRecordProperty[int64](record, "edges")
	if err != nil {
		return fmt.Errorf("get edges: %w", err)
	}
	// A directed (src, dst) pair is represented by a single relationship in
	// the underlying graph. If the query modifies more than one relationship,
	// the underlying graph has lost its integrity, so we cannot continue to
	// operate on it.
	if edges != 1 {
		panicWithCorruptedGraph(ctx, fmt.Sprintf("edge update modified %v relationships instead of 1", edges))
	}
	return nil
}

// checkImmutableConflicts runs a query expected to return a "conflicts" list
// of property names whose stored value differs from the incoming immutable
// value, and fails when any exist.
func (w updateWriter) checkImmutableConflicts(ctx context.Context, query string, params map[string]any) error {
	result, err := w.tx.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("run cypher: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("query single result: %w", err)
	}
	conflicts, err := getRecordProperty[[]interface{}](record, "conflicts")
	if err != nil {
		return fmt.Errorf("get conflicts: %w", err)
	}
	for _, c := range conflicts {
		k, ok := c.(string)
		if !ok {
			return unexpectedPropertyTypeError{Type: reflect.TypeOf(c)}
		}
		return fmt.Errorf("immutable property %q redefined with a different value", k)
	}
	return nil
}

// detachMessages deletes all pending message nodes and reports how many were
// cleared.
func (w updateWriter) detachMessages(ctx context.Context) (n int64, err error) {
	result, err := w.tx.Run(ctx, `
		MATCH (m:Message)
		DETACH DELETE m
		RETURN count(m) AS messages
	`, nil)
	if err != nil {
		return 0, fmt.Errorf("run cypher: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("query single result: %w", err)
	}
	return getRecordProperty[int64](record, "messages")
}

// splitProperties partitions an update's property list into the map of all
// business properties (applied with SET +=) and the subset that is immutable
// (checked against stored values before applying).
func splitProperties(ps []tempograph.Property) (props, immutable map[string]any) {
	props = make(map[string]any, len(ps))
	immutable = make(map[string]any)
	for _, p := range ps {
		props[p.Name] = p.Value
		if p.Kind == tempograph.Immutable {
			immutable[p.Name] = p.Value
		}
	}
	return props, immutable
}

// gidParam bit-casts a GlobalID for storage, because neo4j integers are
// signed 64-bit. gidFromStored reverses the cast on the way out.
func gidParam(id tempograph.GlobalID) int64 {
	return int64(id)
}

func gidFromStored(v int64) tempograph.GlobalID {
	return tempograph.GlobalID(v)
}

// We modify the underlying neo4j graph database in a way that prompts us when
// the graph violates some of our basic constraints.
//
// When we suspect the graph has lost its integrity, we may no longer operate
// on it. In which case, we must immediately stop all operations. This is
// achieved with a panic preceded by telemetry signals (traces, metrics, and
// logs) to bring the situation to our immediate attention.
func panicWithCorruptedGraph(ctx context.Context, reason string) {
	component.Logger(ctx).ErrorContext(ctx, "Encountered corrupted neo4j graph that violates temporal-graph axioms", "error", reason)
	trace.SpanFromContext(ctx).SetStatus(codes.Error, reason)
	panic(fmt.Errorf("neo4j graph violates temporal-graph axioms: %v", reason))
}

// A errPropertyNotFound occurs when an expected column of a query result is
// missing.
//
// Its presence implies a developer changed a Cypher query without modifying
// the code handling its results.
var errPropertyNotFound = errors.New("property not found")

// An unexpectedPropertyTypeError occurs when a query result column has a
// different type than the handling code expects.
//
// Its presence implies a developer changed a Cypher query without modifying
// the code handling its results.
type unexpectedPropertyTypeError struct {
	Type reflect.Type
}

func (e unexpectedPropertyTypeError) Error() string {
	return fmt.Sprintf("unexpected property type: %v", e.Type)
}

// The recordProperty interface defines generic constraints for supported
// values by getRecordProperty.
//
// These type constraints protect against unsupported neo4j types like int,
// uint32, etc.
//
// This is a subset of all types supported by the neo4j package because
// listing all of them would be troublesome. When a new type is necessary,
// developers can simply add it to the list here.
type recordProperty interface {
	int64 | bool | string | neo4j.Node | []interface{} | map[string]interface{}
}

func getRecordProperty[T recordProperty](record *neo4j.Record, key string) (value T, err error) {
	prop, exists := record.Get(key)
	if !exists {
		return value, errPropertyNotFound
	}
	v, ok := prop.(T)
	if !ok {
		return value, unexpectedPropertyTypeError{Type: reflect.TypeOf(prop)}
	}
	return v, nil
}
