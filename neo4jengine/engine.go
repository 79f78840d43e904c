/*
Package neo4jengine implements the tempograph engine contract on Neo4j.

Vertices are stored as (:Vertex) nodes keyed by their GlobalID and edges as
[:LINK] relationships; both carry their complete update history as paired
_times/_indices list properties, so perspective reads filter the graph by
window bounds without materialising point-in-time copies. Business properties
keep their latest value on the node itself.
*/
package neo4jengine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/danielorbach/go-component"
	tempograph "github.com/go-tempograph/go-tempograph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine provides the operations required to maintain a temporal graph on
// Neo4j and implements [tempograph.Engine].
//
// Each update applies in its own write transaction, which is rolled back
// should the update fail, so an update is never partially applied. Reads
// (perspective sweeps, native algorithm runs) exclude concurrent writes
// through an inverted reader/writer lock; see graphWRMutex for why Neo4j's
// own isolation is not relied upon.
type Engine struct {
	driver   neo4j.DriverWithContext // Connection to the neo4j server/cluster.
	database string                  // Target database name that identifies the specific underlying neo4j graph.

	// Ensures multiple concurrent write transactions can safely modify the
	// Neo4j graph, while read transactions get an exclusive lock to keep
	// perspective sweeps consistent.
	txMutex graphWRMutex
}

// NewEngine returns a ready-to-use Engine using the given database as the
// underlying neo4j graph. The database is expected to have been prepared with
// BootstrapDatabase.
func NewEngine(ctx context.Context, driver neo4j.DriverWithContext, database string) (*Engine, error) {
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify connectivity: %w", err)
	}
	return &Engine{driver: driver, database: database}, nil
}

// AddVertexUpdate records the update in the history of u.Src within a single
// write transaction.
func (e *Engine) AddVertexUpdate(ctx context.Context, u tempograph.Update) (err error) {
	ctx, span := tracer.Start(ctx, "AddVertexUpdate", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
	))
	defer span.End()

	return e.write(ctx, func(ctx context.Context, w updateWriter) error {
		return w.appendVertexUpdate(ctx, u)
	})
}

// AddEdgeUpdate records the update in the history of the edge u.Src->u.Dst
// within a single write transaction, creating both endpoints if they do not
// exist yet. Endpoints share the update's stamp, so an edge update also marks
// its vertices as active at that time.
func (e *Engine) AddEdgeUpdate(ctx context.Context, u tempograph.Update) (err error) {
	ctx, span := tracer.Start(ctx, "AddEdgeUpdate", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
	))
	defer span.End()

	return e.write(ctx, func(ctx context.Context, w updateWriter) error {
		return w.appendEdgeUpdate(ctx, u)
	})
}

// write opens a write session and executes fn inside a managed write
// transaction, holding the shared writer side of the transaction mutex.
//
// The function panics when fn indicates a developer changed a Cypher query
// without modifying the surrounding code (see errPropertyNotFound and
// unexpectedPropertyTypeError).
func (e *Engine) write(ctx context.Context, fn func(ctx context.Context, w updateWriter) error) error {
	logger := component.Logger(ctx).With("neo4j.database", e.database)

	// We open a new session for every query cycle to ensure transactional
	// isolation and to prevent any state carryover between different query
	// executions. This practice enhances robustness because any
	// session-specific errors or resources are contained and do not affect
	// subsequent operations.
	s := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Error("Failed to close session", "error", err, "mode", "write")
		}
	}()

	e.txMutex.WLock()
	defer e.txMutex.WUnlock()

	// We use write transactions because the neo4j SDK can provide transaction
	// management features such as retries, error handling, and deadlock
	// resolution.
	_, err := s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		return nil, fn(ctx, updateWriter{tx: tx})
	})
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	} else if errors.Is(err, errPropertyNotFound) || errors.As(err, &unexpectedPropertyTypeError{}) {
		logger.Error("A Cypher query was modified without care", "error", err)
		panic(fmt.Errorf("seek developer attention: neo4j cypher query: %w", err))
	} else if err != nil {
		return fmt.Errorf("neo4j execute: %w", err)
	}
	return nil
}

// read opens a read session, acquires the exclusive reader side of the
// transaction mutex, and executes fn with it. See graphWRMutex for why reads
// exclude concurrent writes.
func (e *Engine) read(ctx context.Context, fn func(ctx context.Context, s neo4j.SessionWithContext) error) error {
	logger := component.Logger(ctx).With("neo4j.database", e.database)

	s := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: e.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Error("Failed to close session", "error", err, "mode", "read")
		}
	}()

	e.txMutex.Lock()
	defer e.txMutex.Unlock()

	return fn(ctx, s)
}

// Vertices lists the state of all vertices visible at the given perspective,
// in ascending GlobalID order.
func (e *Engine) Vertices(ctx context.Context, p tempograph.Perspective) (states []tempograph.VertexState, err error) {
	ctx, span := tracer.Start(ctx, "Vertices", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
	))
	defer span.End()

	err = e.read(ctx, func(ctx context.Context, s neo4j.SessionWithContext) error {
		states, err = sweepPerspective(ctx, s, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sweep perspective: %w", err)
	}
	return states, nil
}

// RunNative executes a recognised native algorithm at each of the given
// perspectives. The Neo4j engine recognises the "degree" algorithm; graphs
// requiring message-passing algorithms should run on an engine with superstep
// support (see the memengine package).
func (e *Engine) RunNative(ctx context.Context, algorithm string, ps []tempograph.Perspective) (*tempograph.Table, error) {
	ctx, span := tracer.Start(ctx, "RunNative", trace.WithAttributes(
		attribute.String("neo4j.database", e.database),
		attribute.String("algorithm.name", algorithm),
	))
	defer span.End()

	if algorithm != "degree" {
		return nil, fmt.Errorf("unrecognised native algorithm %q", algorithm)
	}

	table := tempograph.NewTable()
	err := e.read(ctx, func(ctx context.Context, s neo4j.SessionWithContext) error {
		for _, p := range ps {
			states, err := sweepPerspective(ctx, s, p)
			if err != nil {
				return fmt.Errorf("sweep perspective %v: %w", p.FormattedTime(), err)
			}
			rows := make([]tempograph.Row, 0, len(states))
			for _, v := range states {
				name := any(v.Name)
				if v.Name == "" {
					name = uint64(v.ID)
				}
				rows = append(rows, tempograph.NewRow(name, v.Degree))
			}
			table.Append(p, rows...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// ClearMessages detaches all pending inter-vertex message nodes left behind
// by engine-side algorithm procedures.
func (e *Engine) ClearMessages(ctx context.Context) error {
	return e.write(ctx, func(ctx context.Context, w updateWriter) error {
		n, err := w.detachMessages(ctx)
		if err != nil {
			return err
		}
		clearedMessages.Add(ctx, n, attributeSet(e.database))
		return nil
	})
}

// LatestTime returns the greatest update timestamp stored in the graph,
// reporting ok == false on an empty graph. Edge updates stamp their endpoint
// vertices, so scanning vertex histories covers edge activity too.
func (e *Engine) LatestTime(ctx context.Context) (t int64, ok bool, err error) {
	err = e.read(ctx, func(ctx context.Context, s neo4j.SessionWithContext) error {
		t, ok, err = queryLatestTime(ctx, s)
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("query latest time: %w", err)
	}
	return t, ok, nil
}

// Close closes the underlying neo4j driver. No other method may be called
// after Close.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.driver.Close(ctx); err != nil {
		return fmt.Errorf("close neo4j driver: %w", err)
	}
	return nil
}

// unboundedStart stands in for "no window": an unwindowed perspective covers
// all history up to its timestamp.
const unboundedStart = math.MinInt64

// windowBounds translates a perspective into the half-open interval
// (start, end] its Cypher filters use.
func windowBounds(p tempograph.Perspective) (start, end int64) {
	start = int64(unboundedStart)
	if p.Window != nil {
		start = p.Timestamp - p.Window.Size
	}
	return start, p.Timestamp
}
