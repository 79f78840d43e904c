package tempograph

import (
	"context"
)

// GraphStore defines the two update primitives temporal graphs use to
// delegate storage. Specific graph engines (e.g. in-memory, Neo4j) are
// expected to implement these operations.
//
// Implementations must apply each Update atomically: a call that returns a
// non-nil error must not have partially applied the update. Implementations
// must also tolerate concurrent calls, as ingestion order is already fixed by
// each Update's (Time, SecondaryIndex) pair before it reaches the store.
type GraphStore interface {
	// AddVertexUpdate guarantees that by the time it returns with a nil error,
	// the given vertex update will have been recorded in the engine's history
	// for u.Src. Re-applying an update for an existing vertex extends that
	// vertex's history rather than replacing it.
	AddVertexUpdate(ctx context.Context, u Update) error

	// AddEdgeUpdate guarantees that by the time it returns with a nil error,
	// the given edge update will have been recorded in the engine's history
	// for the edge u.Src->u.Dst, creating both endpoints' histories if they do
	// not exist yet.
	AddEdgeUpdate(ctx context.Context, u Update) error
}

// A VertexState is the read-only projection of one vertex as visible at a
// single Perspective. User-defined algorithms consume these; they never reach
// into engine storage directly.
type VertexState struct {
	ID   GlobalID
	Name string // Empty when the vertex was ingested by numeric id.
	Type string
	// Degree counts restricted to edges active within the perspective.
	Degree, InDegree, OutDegree int
	// Latest property values as of the perspective's timestamp.
	Properties map[string]any
}

// Engine is the full contract between the temporal-graph core and an external
// execution/storage engine. Beyond storage it runs engine-native algorithms,
// exposes per-perspective vertex projections to user-defined algorithms, and
// owns the inter-vertex message queues that algorithms communicate through.
//
// All real concurrency (partitioned supersteps, message passing) lives behind
// this interface; the core's only obligation is to call ClearMessages at
// transform boundaries so a new transform never observes messages left over
// from a previous algorithm.
type Engine interface {
	GraphStore

	// Vertices lists the state of all vertices visible at the given
	// perspective, in ascending GlobalID order.
	Vertices(ctx context.Context, p Perspective) ([]VertexState, error)

	// RunNative executes an engine-recognised algorithm at each of the given
	// perspectives and tabulates its results. The returned Table lists the
	// perspectives in their given order.
	RunNative(ctx context.Context, algorithm string, ps []Perspective) (*Table, error)

	// ClearMessages drops any pending inter-vertex messages accumulated during
	// an algorithm run.
	ClearMessages(ctx context.Context) error

	// LatestTime returns the greatest update timestamp the engine has seen. It
	// reports ok == false on an empty graph.
	LatestTime(ctx context.Context) (t int64, ok bool, err error)

	// Close releases the engine's underlying resources. No other method may be
	// called after Close.
	Close(ctx context.Context) error
}
